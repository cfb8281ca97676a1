// Package miner performs the proof of work for a block across several
// goroutines by partitioning the nonce space.
package miner

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"golang.org/x/sync/errgroup"
)

// checkEvery is how many attempts a worker makes between context checks.
const checkEvery = 1 << 10

// Mine searches for a nonce that solves the block's difficulty and returns
// the solved copy of the block. The block passed in is not modified.
//
// Worker w tries the nonces start+1+w, start+1+w+workers, ... where start is
// the block's current nonce, so together the workers cover the same nonces
// a sequential search would. The first worker to find a solution wins and
// the others stop. With one worker or less the search is sequential.
func Mine(ctx context.Context, block database.Block, workers int, evHandler func(v string, args ...any)) (database.Block, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	if workers <= 1 {
		nb := block.Clone()
		if err := nb.MineContext(ctx, evHandler); err != nil {
			return database.Block{}, err
		}
		return nb, nil
	}

	ev("miner: Mine: MINING: started: workers[%d] difficulty[%d]", workers, block.Header.Difficulty)
	defer ev("miner: Mine: MINING: completed")

	target := database.Target(block.Header.Difficulty)
	start := block.Header.Nonce

	var found atomic.Bool
	var solved database.Block

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			nb := block.Clone()
			nb.Header.Nonce = start + uint32(w) + 1

			for attempts := 1; ; attempts++ {
				if found.Load() {
					return nil
				}

				if attempts%checkEvery == 0 && gctx.Err() != nil {
					return gctx.Err()
				}

				nb.ComputeHash()
				if strings.HasPrefix(nb.Header.Hash, target) {
					if found.CompareAndSwap(false, true) {
						solved = nb
						ev("miner: Mine: MINING: SOLVED: worker[%d]: nonce[%d]: newBlk[%s]", w, nb.Header.Nonce, nb.Header.Hash)
					}
					return nil
				}

				nb.Header.Nonce += uint32(workers)
			}
		})
	}

	err := g.Wait()

	// A solution found just before cancellation is still a solution.
	if found.Load() {
		return solved, nil
	}

	if err == nil {
		err = ctx.Err()
	}

	ev("miner: Mine: MINING: CANCELLED: %s", err)
	return database.Block{}, err
}
