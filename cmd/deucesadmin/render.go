package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/paytable"
	"github.com/ts4z/deuces/textutil"
)

func renderTable(data pterm.TableData) (string, error) {
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

func renderOverview(o *model.Overview) (string, error) {
	data := pterm.TableData{{"ID", "Name", "Players", "Phase"}}
	for _, slug := range o.Slugs {
		data = append(data, []string{
			strconv.FormatInt(slug.GameID, 10),
			slug.Name,
			strconv.Itoa(slug.Players),
			string(slug.Phase),
		})
	}
	return renderTable(data)
}

func renderGame(g *model.Game) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Game %d %q: round %d, %s\n", g.GameID, g.Name, g.Round, g.Phase())
	fmt.Fprintf(&sb, "Bet %d, deuce pays %d, paytable %d\n\n", g.Bet, g.PenaltyPayout, g.PaytableID)

	data := pterm.TableData{{"ID", "Name", "In", "Place", "Deuces", "Carry"}}
	for _, p := range g.Players {
		place := ""
		if p.Rank != nil {
			place = textutil.FormatPlace(*p.Rank)
		}
		in := ""
		if p.IsActive {
			in = "yes"
		}
		data = append(data, []string{
			p.ID,
			p.Name,
			in,
			place,
			strconv.Itoa(p.PenaltyCount),
			textutil.FormatUnits(p.CarryUnits, g.Bet),
		})
	}
	table, err := renderTable(data)
	if err != nil {
		return "", err
	}
	sb.WriteString(table)
	return sb.String(), nil
}

func renderStatement(st *model.Statement) (string, error) {
	names := map[string]string{}
	data := pterm.TableData{{"Place", "Name", "Deuces", "Gross", "Assigned", "Residual", "Pot"}}
	for _, line := range st.Lines {
		names[line.PlayerID] = line.Name
		data = append(data, []string{
			textutil.FormatPlace(line.Rank),
			line.Name,
			strconv.Itoa(line.PenaltyCount),
			textutil.FormatUnits(line.GrossEntitlement, st.Bet),
			textutil.FormatUnits(line.AssignedUnits, st.Bet),
			textutil.FormatUnits(line.ResidualUnits, st.Bet),
			textutil.FormatSigned(line.PotResult),
		})
	}
	lines, err := renderTable(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Game %d round %d, bet %d\n\n", st.GameID, st.Round, st.Bet)
	sb.WriteString(lines)
	sb.WriteString("\n")

	if len(st.Debts) == 0 {
		sb.WriteString("Nobody owes anybody.\n")
		return sb.String(), nil
	}
	debts := pterm.TableData{{"Pays", "To", "Amount"}}
	for _, d := range st.Debts {
		debts = append(debts, []string{names[d.Debtor], names[d.Creditor], strconv.FormatInt(d.Amount, 10)})
	}
	table, err := renderTable(debts)
	if err != nil {
		return "", err
	}
	sb.WriteString(table)
	return sb.String(), nil
}

func renderPaytables(slugs []*paytable.PaytableSlug) (string, error) {
	data := pterm.TableData{{"ID", "Name"}}
	for _, s := range slugs {
		data = append(data, []string{strconv.FormatInt(s.ID, 10), s.Name})
	}
	return renderTable(data)
}
