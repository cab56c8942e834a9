package qbwc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosuda/qbsync/internal/session"
	"github.com/gosuda/qbsync/internal/soap"
)

// Handle runs one parsed call and encodes its outcome with the protocol's
// in-band sentinels. The only error it returns is ErrUnknownMethod; every
// other failure is part of the result.
func (d *Dispatcher) Handle(ctx context.Context, call soap.Call) (soap.Result, error) {
	switch call.Method {
	case soap.MethodServerVersion:
		return soap.Strings(d.ServerVersion()), nil

	case soap.MethodClientVersion:
		return soap.Strings(d.ClientVersion(call.Param(soap.ParamVersion))), nil

	case soap.MethodAuthenticate:
		res, err := d.Authenticate(ctx, call.Param(soap.ParamUserName), call.Param(soap.ParamPassword))
		switch {
		case err == nil:
			return soap.Strings(res.Ticket, ""), nil
		case errors.Is(err, session.ErrInvalidCredentials):
			return soap.Strings("", InvalidCredentials), nil
		default:
			return soap.Strings("", ServerBusy), nil
		}

	case soap.MethodSendRequestXML:
		doc, err := d.SendRequestXML(ctx, call.Param(soap.ParamTicket))
		if err != nil {
			return soap.Strings(InvalidTicket), nil
		}
		return soap.Strings(doc), nil

	case soap.MethodReceiveResponseXML:
		progress, err := d.ReceiveResponseXML(ctx, call.Param(soap.ParamTicket), call.Param(soap.ParamResponse))
		if err != nil {
			return soap.Int(InvalidProgress), nil
		}
		return soap.Int(progress), nil

	case soap.MethodConnectionError:
		return soap.Strings(d.ConnectionError(ctx,
			call.Param(soap.ParamTicket),
			call.Param(soap.ParamMessage),
			call.Param(soap.ParamHResult),
		)), nil

	case soap.MethodCloseConnection:
		return soap.Strings(d.CloseConnection(call.Param(soap.ParamTicket))), nil

	default:
		return soap.Result{}, fmt.Errorf("qbwc.Dispatcher.Handle: %w: %q", ErrUnknownMethod, call.Method)
	}
}
