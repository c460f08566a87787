package idb

import (
	"log"
	"os"

	"github.com/mewkiz/pkg/term"
)

// dbg logs warning-grade conditions (e.g. a request for the reserved
// page 0) to standard error without treating them as errors. It is
// unexported, so code outside this package cannot redirect it; the -q
// flag of cmd/idbcat silences only that tool's own logger.
var dbg = log.New(os.Stderr, term.YellowBold("idb:")+" ", 0)
