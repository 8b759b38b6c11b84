// Package tool maps tool names to handlers and validates call arguments.
// It is a pure routing layer: it never retries, and every handler failure
// passes through unchanged as a tagged error inside the ToolResult.
package tool

import (
	"context"
	"sort"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	bookingx "github.com/marisburan/voyago/agent/booking"
	contractx "github.com/marisburan/voyago/agent/contract"
)

const (
	ToolSearchFlights      = "search_flights"
	ToolGetPaymentMethods  = "get_payment_methods"
	ToolGetCardBenefits    = "get_card_benefits"
	ToolReserveFlight      = "reserve_flight"
	ToolConfirmReservation = "confirm_reservation"
)

// Handler executes one tool call. It returns either a full success payload
// or a tagged error, never both and never a partial result.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, *contractx.Error)

type registration struct {
	info    *schema.ToolInfo
	handler Handler
}

// Dispatcher routes tool invocations issued by the decision oracle to the
// saga engine or to the stateless lookups.
type Dispatcher struct {
	tools map[string]registration
	log   zerolog.Logger
}

var _ contractx.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher builds the full travel-concierge catalog around one saga
// engine instance.
func NewDispatcher(engine *bookingx.Engine) *Dispatcher {
	d := &Dispatcher{
		tools: make(map[string]registration),
		log:   log.With().Str("component", "dispatcher").Logger(),
	}
	d.register(flightSearchInfo(), handleSearchFlights)
	d.register(paymentMethodsInfo(), handleGetPaymentMethods)
	d.register(cardBenefitsInfo(), handleGetCardBenefits)
	d.register(reserveFlightInfo(), reserveFlightHandler(engine))
	d.register(confirmReservationInfo(), confirmReservationHandler(engine))
	return d
}

func (d *Dispatcher) register(info *schema.ToolInfo, handler Handler) {
	d.tools[info.Name] = registration{info: info, handler: handler}
}

// ToolInfos returns the catalog published to the decision oracle, in a
// stable order.
func (d *Dispatcher) ToolInfos() []*schema.ToolInfo {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, d.tools[name].info)
	}
	return infos
}

// Dispatch routes one tool call. A cancelled task context short-circuits
// before the handler runs; the gateway drops the result either way.
func (d *Dispatcher) Dispatch(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	if err := ctx.Err(); err != nil {
		return contractx.Fail(req.Tool, contractx.NewError(contractx.KindInternal,
			"task cancelled before tool dispatch"))
	}

	reg, ok := d.tools[req.Tool]
	if !ok {
		d.log.Warn().Str("tool", req.Tool).Msg("unknown tool requested")
		return contractx.Fail(req.Tool, contractx.NewErrorWithDetails(contractx.KindUnknownTool,
			map[string]any{"requested_tool": req.Tool},
			"no handler registered for tool %q", req.Tool))
	}

	data, toolErr := reg.handler(ctx, req.Args)
	if toolErr != nil {
		d.log.Warn().
			Str("tool", req.Tool).
			Str("kind", string(toolErr.Kind)).
			Msg("tool call failed")
		return contractx.Fail(req.Tool, toolErr)
	}

	d.log.Debug().Str("tool", req.Tool).Msg("tool call succeeded")
	return contractx.Succeed(req.Tool, data)
}
