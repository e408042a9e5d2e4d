//go:build integration
// +build integration

package tests

import (
	"context"
	"log"
	"net"
	"net/rpc"
	"os"
	"os/signal"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambda/messages"
)

// The native lambda server from the SDK has no shutdown path because AWS
// terminates the container rather than signaling the process. Tests need to
// cycle the server between cases so this is a minimal replica of the RPC
// surface that stops on an interrupt signal.

type embeddedFunction struct {
	handler lambda.Handler
}

func (fn *embeddedFunction) Ping(req *messages.PingRequest, response *messages.PingResponse) error {
	*response = messages.PingResponse{}
	return nil
}

func (fn *embeddedFunction) Invoke(req *messages.InvokeRequest, response *messages.InvokeResponse) error {
	payload, err := fn.handler.Invoke(context.Background(), req.Payload)
	if err != nil {
		response.Error = &messages.InvokeResponse_Error{
			Message: err.Error(),
			Type:    "errorString",
		}
		return nil
	}
	response.Payload = payload
	return nil
}

// StartHandler is the patch value for crosstune.LambdaStartFn. It serves the
// same Function.Ping and Function.Invoke RPC methods as the SDK server on the
// port named by _LAMBDA_SERVER_PORT.
func StartHandler(ctx context.Context, handler lambda.Handler) {
	port := os.Getenv("_LAMBDA_SERVER_PORT")
	listener, err := net.Listen("tcp", "localhost:"+port)
	if err != nil {
		log.Fatal(err)
	}
	server := rpc.NewServer()
	if err := server.RegisterName("Function", &embeddedFunction{handler: handler}); err != nil {
		log.Fatal(err)
	}
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		signal.Stop(stop)
		_ = listener.Close()
	}()
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go server.ServeConn(conn)
	}
}
