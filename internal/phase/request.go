package phase

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/noscope-dev/noscope/internal/capability"
	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
)

// RunRequest walks the planner's requested capabilities past the operator
// one at a time and returns the resulting grants. REQUEST carries no time
// budget of its own (see deadline.DefaultAllocation); its wall-clock cost
// is absorbed by whatever phase follows, so this function does not consult
// the deadline at all.
//
// autoApprove bypasses the prompt (used for --yes / non-interactive runs)
// and grants every requested capability.
func RunRequest(in io.Reader, out io.Writer, requests []capability.Request, autoApprove bool, log *eventlog.Log) *capability.Store {
	grants := make([]capability.Grant, 0, len(requests))
	reader := bufio.NewReader(in)

	for _, req := range requests {
		approved := autoApprove
		if !autoApprove {
			fmt.Fprintf(out, "Requested capability: %s\n  why:  %s\n  risk: %s\n  grant? [y/N] ", req.Cap, req.Why, req.Risk)
			line, _ := reader.ReadString('\n')
			approved = strings.EqualFold(strings.TrimSpace(line), "y") || strings.EqualFold(strings.TrimSpace(line), "yes")
		}
		grants = append(grants, capability.Grant{Cap: req.Cap, Approved: approved})
		log.Emit(string(deadline.PhaseRequest), "capability.decision",
			fmt.Sprintf("%s: %v", req.Cap, approved),
			map[string]any{"cap": req.Cap, "risk": req.Risk}, nil)
	}

	return capability.NewStore(grants)
}
