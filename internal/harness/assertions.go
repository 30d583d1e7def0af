package harness

// checkAssertions evaluates the scenario's assertions against the run.
func (r *runner) checkAssertions() {
	snap := r.state.Snapshot()

	for i, a := range r.scenario.Assertions {
		switch a.Type {
		case AssertNotificationCount:
			r.mu.Lock()
			got := r.result.Notifications
			r.mu.Unlock()
			if got != a.Count {
				r.fail("assertion %d: %d notifications, want %d", i, got, a.Count)
			}

		case AssertRequestCount:
			r.mu.Lock()
			got := r.result.Requests
			r.mu.Unlock()
			if got != a.Count {
				r.fail("assertion %d: %d requests, want %d", i, got, a.Count)
			}

		case AssertRecordSynced:
			found := false
			for _, rec := range snap.Records {
				if rec.ID != a.Record {
					continue
				}
				found = true
				if rec.Synced != a.Synced {
					r.fail("assertion %d: record %s synced = %t, want %t", i, a.Record, rec.Synced, a.Synced)
				}
			}
			if !found {
				r.fail("assertion %d: record %s not found", i, a.Record)
			}
		}
	}
}
