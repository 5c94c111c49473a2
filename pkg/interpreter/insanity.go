package interpreter

// applyInsanityEffects runs once per statement while the ledger is Insane.
// Every swap window it picks a graph edge and exchanges the endpoint values,
// which is exactly as disruptive as it sounds.
func (i *Interpreter) applyInsanityEffects(fr *frame) {
	i.mu.Lock()
	i.insanitySwap++
	due := i.insanitySwap%i.ctx.Config.InsanitySwapTicks == 0
	i.mu.Unlock()
	if !due {
		return
	}

	ids := fr.env.AllIDs()
	if len(ids) == 0 {
		return
	}
	start := i.ctx.Rand.Intn(len(ids))
	for off := 0; off < len(ids); off++ {
		id := ids[(start+off)%len(ids)]
		neighbors := i.ctx.Graph.Neighbors(id)
		if len(neighbors) == 0 {
			continue
		}
		a, errA := i.ctx.Store.Get(id)
		b, errB := i.ctx.Store.Get(neighbors[i.ctx.Rand.Intn(len(neighbors))])
		if errA != nil || errB != nil {
			continue
		}
		a.Value, b.Value = b.Value, a.Value
		i.printf("[insanity] %q and %q have traded values\n", a.Name, b.Name)
		return
	}
}
