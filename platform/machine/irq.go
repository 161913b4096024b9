package machine

// IRQFlags is the interrupt state saved by Disable and handed back to Restore.
type IRQFlags uint32

// IRQ brackets sections that must not be preempted. Restore must be given the
// flags returned by the matching Disable.
type IRQ interface {
	Disable() IRQFlags
	Restore(IRQFlags)
}
