package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ts4z/deuces/action"
	"github.com/ts4z/deuces/config"
	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/paytable"
	"github.com/ts4z/deuces/round"
	"github.com/ts4z/deuces/settle"
	"github.com/ts4z/deuces/state"
	"github.com/ts4z/deuces/ts"
)

var (
	gameParams action.GameParams
)

// session is what every command needs; it's built after flags are parsed.
type session struct {
	actor     *action.Actor
	paytables state.PaytableStorage
	storage   state.GameStorage
}

func (s *session) Close() {
	s.storage.Close()
}

func newSession(ctx context.Context) *session {
	config.Init()
	tieBreak, err := settle.ParseTieBreak(config.TieBreak())
	if err != nil {
		log.Fatalf("bad tie_break: %v", err)
	}
	paytables, err := state.NewDefaultPaytableStorage(config.PaytableDir())
	if err != nil {
		log.Fatalf("can't load paytables: %v", err)
	}
	storage, err := state.OpenDBStorage(ctx)
	if err != nil {
		log.Fatalf("can't connect to database: %v", err)
	}
	tm := round.NewMutator(ts.NewRealClock(), paytables, tieBreak)
	return &session{
		actor:     action.New(storage, tm, config.LockTimeout()),
		paytables: paytables,
		storage:   storage,
	}
}

func parseGameID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad game id %q", s)
	}
	return id, nil
}

func printed(text string, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func showGame(g *model.Game, err error) error {
	if err != nil {
		return err
	}
	return printed(renderGame(g))
}

func listGames(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s := newSession(ctx)
	defer s.Close()

	overview, err := s.actor.FetchOverview(ctx)
	if err != nil {
		return fmt.Errorf("fetching games: %w", err)
	}
	return printed(renderOverview(overview))
}

func createGame(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s := newSession(ctx)
	defer s.Close()

	g, err := s.actor.CreateGame(ctx, gameParams)
	if err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	pterm.Success.Printfln("Created game %d.", g.GameID)
	return nil
}

func deleteGame(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id, err := parseGameID(args[0])
	if err != nil {
		return err
	}
	s := newSession(ctx)
	defer s.Close()

	if err := s.actor.DeleteGame(ctx, id); err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	pterm.Success.Printfln("Deleted game %d.", id)
	return nil
}

// gameCommand runs an operation that takes a game id and prints the game
// afterwards.
func gameCommand(f func(*session, context.Context, int64) (*model.Game, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		id, err := parseGameID(args[0])
		if err != nil {
			return err
		}
		s := newSession(ctx)
		defer s.Close()
		return showGame(f(s, ctx, id))
	}
}

// playerCommand runs an operation that takes a game id and a player id.
func playerCommand(f func(*session, context.Context, int64, string) (*model.Game, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		id, err := parseGameID(args[0])
		if err != nil {
			return err
		}
		s := newSession(ctx)
		defer s.Close()
		return showGame(f(s, ctx, id, args[1]))
	}
}

func addPlayer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id, err := parseGameID(args[0])
	if err != nil {
		return err
	}
	s := newSession(ctx)
	defer s.Close()

	p, err := s.actor.AddPlayer(ctx, id, args[1])
	if err != nil {
		return fmt.Errorf("adding player: %w", err)
	}
	pterm.Success.Printfln("Added %s as %s.", p.Name, p.ID)
	return nil
}

func settleRound(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id, err := parseGameID(args[0])
	if err != nil {
		return err
	}
	s := newSession(ctx)
	defer s.Close()

	st, err := s.actor.Settle(ctx, id)
	if err != nil {
		return fmt.Errorf("settling game %d: %w", id, err)
	}
	return printed(renderStatement(st))
}

func showPayouts(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id, err := parseGameID(args[0])
	if err != nil {
		return err
	}
	s := newSession(ctx)
	defer s.Close()

	text, err := s.actor.Payouts(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func listPaytables(cmd *cobra.Command, args []string) error {
	config.Init()
	paytables, err := state.NewDefaultPaytableStorage(config.PaytableDir())
	if err != nil {
		return err
	}
	defer paytables.Close()
	slugs, err := paytables.FetchPaytableSlugs(context.Background())
	if err != nil {
		return err
	}
	return printed(renderPaytables(slugs))
}

// checkPaytables validates YAML paytable files before they're deployed.
func checkPaytables(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		pt, err := paytable.LoadFile(path)
		if err != nil {
			pterm.Error.Println(err)
			failed++
			continue
		}
		pterm.Success.Printfln("%s: paytable %d %q is fair", path, pt.ID, pt.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d paytables failed", failed, len(args))
	}
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Short:        "Deuces administration tool",
		Use:          "deucesadmin",
		SilenceUsage: true,
	}

	gameCmd := &cobra.Command{
		Short: "Manage games",
		Use:   "game",
	}
	createGameCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new game",
		RunE:  createGame,
	}
	createGameCmd.Flags().StringVar(&gameParams.Name, "name", "", "Name of the game")
	createGameCmd.Flags().Int64Var(&gameParams.Bet, "bet", 0, "Bet per player per round")
	createGameCmd.Flags().Int64Var(&gameParams.PenaltyPayout, "penalty", 0, "What a deuce costs, paid to each other player")
	createGameCmd.Flags().Int64Var(&gameParams.PaytableID, "paytable", 1, "Paytable ID")
	createGameCmd.MarkFlagRequired("name")
	createGameCmd.MarkFlagRequired("bet")

	gameCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List games",
			RunE:  listGames,
		},
		createGameCmd,
		&cobra.Command{
			Use:   "show GAME",
			Short: "Show a game and its players",
			Args:  cobra.ExactArgs(1),
			RunE: gameCommand(func(s *session, ctx context.Context, id int64) (*model.Game, error) {
				return s.actor.FetchGame(ctx, id)
			}),
		},
		&cobra.Command{
			Use:   "delete GAME",
			Short: "Delete a game",
			Args:  cobra.ExactArgs(1),
			RunE:  deleteGame,
		},
	)

	playerCmd := &cobra.Command{
		Short: "Manage players",
		Use:   "player",
	}
	playerCmd.AddCommand(
		&cobra.Command{
			Use:   "add GAME NAME",
			Short: "Seat a player before the round starts",
			Args:  cobra.ExactArgs(2),
			RunE:  addPlayer,
		},
		&cobra.Command{
			Use:   "remove GAME PLAYER",
			Short: "Remove a player between rounds",
			Args:  cobra.ExactArgs(2),
			RunE: playerCommand(func(s *session, ctx context.Context, id int64, p string) (*model.Game, error) {
				return s.actor.RemovePlayer(ctx, id, p)
			}),
		},
		&cobra.Command{
			Use:   "eliminate GAME PLAYER",
			Short: "Knock a player out of the round",
			Args:  cobra.ExactArgs(2),
			RunE: playerCommand(func(s *session, ctx context.Context, id int64, p string) (*model.Game, error) {
				return s.actor.Eliminate(ctx, id, p)
			}),
		},
		&cobra.Command{
			Use:   "reinstate GAME PLAYER",
			Short: "Undo the latest elimination",
			Args:  cobra.ExactArgs(2),
			RunE: playerCommand(func(s *session, ctx context.Context, id int64, p string) (*model.Game, error) {
				return s.actor.Reinstate(ctx, id, p)
			}),
		},
		&cobra.Command{
			Use:   "deuce GAME PLAYER",
			Short: "Record a deuce against a player",
			Args:  cobra.ExactArgs(2),
			RunE: playerCommand(func(s *session, ctx context.Context, id int64, p string) (*model.Game, error) {
				return s.actor.RecordDeuce(ctx, id, p)
			}),
		},
	)

	roundCmd := &cobra.Command{
		Short: "Run rounds",
		Use:   "round",
	}
	roundCmd.AddCommand(
		&cobra.Command{
			Use:   "start GAME",
			Short: "Start a round",
			Args:  cobra.ExactArgs(1),
			RunE: gameCommand(func(s *session, ctx context.Context, id int64) (*model.Game, error) {
				return s.actor.StartRound(ctx, id)
			}),
		},
		&cobra.Command{
			Use:   "end GAME",
			Short: "End the round when one player is left",
			Args:  cobra.ExactArgs(1),
			RunE: gameCommand(func(s *session, ctx context.Context, id int64) (*model.Game, error) {
				return s.actor.EndRound(ctx, id)
			}),
		},
		&cobra.Command{
			Use:   "settle GAME",
			Short: "Settle the round and show who owes whom",
			Args:  cobra.ExactArgs(1),
			RunE:  settleRound,
		},
		&cobra.Command{
			Use:   "reset GAME",
			Short: "Clear the round so the next one can start",
			Args:  cobra.ExactArgs(1),
			RunE: gameCommand(func(s *session, ctx context.Context, id int64) (*model.Game, error) {
				return s.actor.Reset(ctx, id)
			}),
		},
		&cobra.Command{
			Use:   "payouts GAME",
			Short: "Show what each place pays",
			Args:  cobra.ExactArgs(1),
			RunE:  showPayouts,
		},
	)

	paytableCmd := &cobra.Command{
		Short: "Inspect paytables",
		Use:   "paytable",
	}
	paytableCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the configured paytables",
			RunE:  listPaytables,
		},
		&cobra.Command{
			Use:   "check FILE...",
			Short: "Check that YAML paytables load and are fair",
			Args:  cobra.MinimumNArgs(1),
			RunE:  checkPaytables,
		},
	)

	rootCmd.AddCommand(gameCmd, playerCmd, roundCmd, paytableCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
