package db

import (
	"github.com/markdave123-py/ticketlens/internal/core"
)

// DbClient is the persistence interface the services program against.
// Defined in core so handlers and services never import this package directly.
type DbClient = core.DbClient
