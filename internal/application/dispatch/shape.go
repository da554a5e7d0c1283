package dispatch

import (
	"errors"

	domainErrors "github.com/jbctechsolutions/mcpnotes/internal/domain/errors"
	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

// Shape maps a handler outcome to an envelope.
//
//	nil error             -> success
//	*mcp.ValidationError  -> InvalidArgument
//	CodeNotFound error    -> NotFound with the domain message
//	CodeValidation error  -> InvalidArgument with the domain message
//	anything else         -> Internal, "<operation> failed: <cause>"
func Shape(operation string, res *mcp.Result, err error) mcp.Envelope {
	if err == nil {
		return mcp.Success(res)
	}

	var verr *mcp.ValidationError
	if errors.As(err, &verr) {
		return mcp.Failure(mcp.KindInvalidArgument, "%s", verr.Error())
	}

	switch domainErrors.CodeOf(err) {
	case domainErrors.CodeNotFound:
		return mcp.Failure(mcp.KindNotFound, "%s", domainErrors.MessageOf(err))
	case domainErrors.CodeValidation:
		return mcp.Failure(mcp.KindInvalidArgument, "%s", domainErrors.MessageOf(err))
	}

	return mcp.Failure(mcp.KindInternal, "%s failed: %v", operation, err)
}
