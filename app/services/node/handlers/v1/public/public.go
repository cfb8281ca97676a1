// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/BenjaminLonguechaud/Blockchain/business/web/errs"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/events"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/chain"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/nameservice"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	Chain       *chain.Chain
	NS          *nameservice.NameService
	WS          websocket.Upgrader
	Evts        *events.Events
	Signer      database.Signer
	Workers     int
	MineTimeout time.Duration
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the chain.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// This keeps the client socket alive.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis configuration of the chain.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Chain.Genesis(), http.StatusOK)
}

// Blocks returns a summary of every block in the chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.Chain.Blocks()

	info := chainInfo{
		Length: len(blocks),
		Tip:    blocks[len(blocks)-1].Hash(),
		Blocks: make([]blockSummary, len(blocks)),
	}
	for i, b := range blocks {
		info.Blocks[i] = toBlockSummary(uint64(i), b)
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Validate walks the chain and reports the first violation found.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validation{
		Valid:  true,
		Blocks: h.Chain.Len(),
	}

	if err := h.Chain.ValidateChain(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Block returns the block at the specified number with its transactions.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	num, err := strconv.ParseUint(web.Param(r, "num"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block number: %w", err), http.StatusBadRequest)
	}

	b, err := h.Chain.Block(num)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, toBlock(num, b, h.NS), http.StatusOK)
}

// Mine builds the transactions in the request, mines a block holding them
// and adds it to the chain. Transactions that are not valid are left out of
// the block.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req MineRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	pool := make([]database.Tx, len(req.Transactions))
	for i, nt := range req.Transactions {
		pool[i] = database.NewTx(nt.Inputs, nt.Outputs)

		if h.Signer != nil {
			if err := pool[i].Sign(h.Signer); err != nil {
				return fmt.Errorf("signing tx %d: %w", i, err)
			}
		}
	}

	workers := req.Workers
	if workers == 0 {
		workers = h.Workers
	}

	h.Log.Infow("mine block", "traceid", v.TraceID, "trans", len(pool), "difficulty", req.Difficulty, "workers", workers)

	ctx, cancel := context.WithTimeout(ctx, h.MineTimeout)
	defer cancel()

	b, err := h.Chain.MineBlock(ctx, pool, req.Difficulty, workers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errs.NewTrusted(fmt.Errorf("mining did not complete within %v", h.MineTimeout), http.StatusServiceUnavailable)
		}
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, toBlock(uint64(h.Chain.Len()-1), b, h.NS), http.StatusCreated)
}
