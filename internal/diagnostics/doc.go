// Package diagnostics records shade registry gaps.
//
// When a shade reports a type, capabilities code or property that the
// capability database does not know or disagrees with, the shade package
// emits a shade.Diagnostic. Recorder collects those, logs the first
// occurrence of each at warn level and stores it in the shade_diagnostics
// table so operators can ask for database updates.
//
//	repo := diagnostics.NewSQLiteRepository(db.DB)
//	rec := diagnostics.NewRecorder(repo, logger)
//	act := shade.ResolveActuator(cfg, rec)
package diagnostics
