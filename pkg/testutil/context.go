package testutil

import (
	"net/http"

	"reviewdraw/pkg/platform/middleware/operator"
)

// AsOperator sets the operator attribution header the way a client would.
func AsOperator(req *http.Request, operatorID string) *http.Request {
	req.Header.Set(operator.Header, operatorID)
	return req
}
