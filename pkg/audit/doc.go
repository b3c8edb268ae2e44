// Package audit records security relevant account events: logins, failed
// logins, logouts and account mutations.
//
// The server installs a LogrusLogger into each request context; services
// fetch it with FromContext and fall back to NoopLogger when none is set.
//
//	audit.FromContext(ctx).Log(ctx, &audit.Event{
//		EventType: audit.EventTypeAccountDelete,
//		Status:    audit.EventStatusSuccess,
//		AccountID: &caller.AccountID,
//		TargetIDs: ids,
//	})
package audit
