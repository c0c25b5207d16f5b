// Package logger builds *slog.Logger instances with a consistent shape across
// the auth services.
//
// New creates a JSON or text handler, attaches static attributes and wraps the
// handler with ContextHandler, which runs registered ContextExtractor
// callbacks on every record so request-scoped values (request id, user id)
// land in the output without threading them through each call. A key the
// call site already set wins over the extracted one.
//
// Attribute helpers such as UserID, Roles, Component and Error keep key names
// uniform. Error and UserID return an empty slog.Attr for zero values, so
// callers can pass them unconditionally:
//
//	log.WarnContext(ctx, "breach purge failed",
//	    logger.UserID(userID),
//	    logger.Error(err),
//	    logger.Component("auth"),
//	)
//
// Services accept a logger through an option and default to Discard.
package logger
