package kernel

import (
	"github.com/mycelia-sim/ccdriver/pkg/core"
)

// Handler validates, binds, and enqueues one logical command. Handlers are
// looked up by CommandType at dispatch time, so new commands can be added
// without touching Dispatch (§9 redesign note: dispatcher becomes a single
// launch(cmd) over a tagged variant; handlers own their argument packing).
type Handler func(e *Enqueuer, cmd interface{}) error

// Dispatcher holds the command-type -> handler registry described in §4.3.
type Dispatcher struct {
	handlers map[core.CommandType]Handler
}

// NewDispatcher builds an empty dispatcher. The driver registers
// ArithmeticHandler for every ArithmeticOp the first time ExecuteArithmetic
// runs on a gpu_index; the SubQG step launches its kernel through
// Enqueuer.Launch directly, not through a dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[core.CommandType]Handler)}
}

// Register adds or replaces the handler for a command type.
func (d *Dispatcher) Register(ct core.CommandType, h Handler) {
	d.handlers[ct] = h
}

// Dispatch looks up and invokes the handler for cmd's command type.
func (d *Dispatcher) Dispatch(e *Enqueuer, ct core.CommandType, cmd interface{}) error {
	h, ok := d.handlers[ct]
	if !ok {
		return core.NewError(core.KindValidation, "unknown command type: "+string(ct), core.ErrInvalidArgument, 0)
	}
	return h(e, cmd)
}

// Commands lists every registered command type, for introspection (mcpctl).
func (d *Dispatcher) Commands() []core.CommandType {
	out := make([]core.CommandType, 0, len(d.handlers))
	for ct := range d.handlers {
		out = append(out, ct)
	}
	return out
}

// RequireAtomics32 refuses atomic-dependent commands when the device lacks
// 32-bit global atomics (§4.3): PROTO_SEGMENTED_SUM, LINGUISTIC_PHEROMONE_REINFORCE.
func RequireAtomics32(caps core.BuildCaps) error {
	if !caps.Atomics32 {
		return core.NewError(core.KindCapability, "command requires 32-bit global atomics", core.ErrCapabilityMissing, 0)
	}
	return nil
}

func arithmeticGlobalSize(shape [4]int32) int32 {
	total := int32(1)
	for _, d := range shape {
		if d > 0 {
			total *= d
		}
	}
	return total
}

// ArithmeticHandler dispatches the out-of-scope arithmetic kernels (§1):
// only their validate/bind/profile contract matters here, not their math,
// so one handler serves every ArithmeticOp.
func ArithmeticHandler(slot *core.DeviceSlot) Handler {
	return func(e *Enqueuer, cmd interface{}) error {
		ac, ok := cmd.(*core.ArithmeticCommand)
		if !ok {
			return core.NewError(core.KindValidation, "arithmetic handler received wrong command type", core.ErrInvalidArgument, 0)
		}
		if ac.Op.NeedsAtomics32() {
			if err := RequireAtomics32(slot.Caps); err != nil {
				return err
			}
		}
		if ac.IsZeroSized() {
			return nil
		}
		pair, ok := slot.Programs[string(ac.Op)]
		if !ok || pair == nil {
			return core.NewError(core.KindValidation, "kernel not compiled: "+string(ac.Op), core.ErrNotInitialized, 0)
		}
		variant := pair.Strict
		if ac.FastMath && pair.Fast != nil {
			variant = pair.Fast
		}
		gws := []uintptr{uintptr(arithmeticGlobalSize(ac.Shape))}
		return e.Launch(slot.MainQueue, variant.Kernel, gws, nil, string(ac.Op), slot.GPUIndex)
	}
}
