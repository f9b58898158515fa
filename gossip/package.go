/*
package gossip tells waiting clients when a game changes, so a table-side
display can long-poll instead of hammering the server.

Writes made through this process are seen directly.  On Postgres, writes
from other servers arrive through dbnotify; on SQLite they aren't seen, and
clients fall back on their poll timeout.
*/

package gossip

import (
	"context"

	"github.com/ts4z/deuces/model"
)

// Fetcher is whatever we can ask for the current version of a game.
type Fetcher interface {
	FetchGame(ctx context.Context, id int64) (*model.Game, error)
}
