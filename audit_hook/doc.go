// Package audithook is a cronlock extension that writes scheduler activity
// to an audit trail.
//
// Every run start, completion, failure and soft timeout, and every change
// of scheduling ownership, becomes a structured [AuditEvent] handed to a
// [Recorder]. Failures are critical, soft timeouts and lost ownership are
// warnings, everything else is info.
//
//	eng, _ := engine.Build(pgStore,
//	    engine.WithExtension(audithook.New(audithook.RecorderFunc(
//	        func(ctx context.Context, evt *audithook.AuditEvent) error {
//	            return auditLog.Write(ctx, evt)
//	        },
//	    ))),
//	)
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionRunFailed,
//	        audithook.ActionRunSoftTimeout,
//	        audithook.ActionOwnershipLost,
//	    ),
//	)
package audithook
