// Command orphans reviews and resolves partial successes recorded in the
// run ledger.
//
// A partial success is an asset whose converted replacement was uploaded,
// linked and verified, but whose original could not be deleted. Both copies
// remain in the catalog until an operator decides what to do.
//
// Usage:
//
//	orphans <command> [flags] [id...]
//
// Commands:
//
//	list     Print unresolved orphans, oldest first.
//
//	resolve  Re-attempt deleting the originals. Each replacement is checked
//	         first; an orphan whose replacement no longer exists is left
//	         untouched. Without ids every unresolved orphan is selected.
//	         Flags:
//	           -yes   skip the interactive confirmation (required when stdin
//	                  is not a terminal)
//	           -keep  mark the orphans resolved without deleting anything
//
// Environment:
//
//	LEDGER_PATH     - Path to the ledger (default: $WORKDIR/ledger.db)
//	WORKDIR         - Work directory (default: /work)
//	IMMICH_API_BASE - Catalog API root (resolve only)
//	IMMICH_API_KEY  - Catalog API key (resolve only)
//	ENV_FILE        - Optional .env file (default: .env)
package main
