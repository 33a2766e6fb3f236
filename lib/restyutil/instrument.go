package restyutil

import (
	"fmt"
	"sync/atomic"

	"teepee-scraper/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

// DumpMessages writes every completed request/response pair of client to
// output. Messages are named after the request id assigned by
// telemetry.InstrumentResty, or a local counter when the client is not
// instrumented. A nil output makes this a no-op.
func DumpMessages(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}

	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := telemetry.RequestId(res.Request.Context())
		if id == 0 {
			id = atomic.AddUint64(&counter, 1)
		}
		output.Write(
			fmt.Sprintf("%04d-%s.txt", id, res.Request.Method),
			FormatHttpMessage(res),
		)
		return nil
	})
}
