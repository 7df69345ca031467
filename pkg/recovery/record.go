package recovery

import "github.com/CodeMonkeyCybersecurity/pirescue/pkg/history"

// RecordChecks copies check results onto a history run.
func RecordChecks(run *history.Run, checks []CheckResult) {
	for _, c := range checks {
		run.Checks = append(run.Checks, history.Check{
			Name:   c.Name,
			Status: string(c.Status),
			Detail: c.Detail,
		})
	}
}

// RecordSnapshot copies the connection state onto a history run.
func RecordSnapshot(run *history.Run, s Snapshot) {
	run.SSID = s.SSID
	run.IPAddress = s.IPAddress
	run.Connected = s.Connected()
}
