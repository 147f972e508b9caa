package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ppdb/core"
)

func newTestLogger() (*RollbarLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST"})
	logger.Enable(false)
	return logger, &buf
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger, _ := newTestLogger()
	err := errors.New("boom")
	extras := map[string]interface{}{"user_id": 1}
	person := &core.Person{ID: "1", Name: "Siti"}

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{name: "message only", want: []interface{}{"msg"}},
		{name: "error and extras", args: []interface{}{err, extras}, want: []interface{}{"msg", err, extras}},
		{name: "person is not forwarded", args: []interface{}{err, person}, want: []interface{}{"msg", err}},
		{name: "nil person", args: []interface{}{(*core.Person)(nil), err}, want: []interface{}{"msg", err}},
		{name: "person value", args: []interface{}{*person, *person}, want: []interface{}{"msg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.prepare("msg", tt.args))
		})
	}
}

func TestRollbarLogger_print(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Warn("listing city options", errors.New("timeout"))
	assert.Equal(t, "WARN: listing city options\n  timeout\n", buf.String())

	buf.Reset()
	logger.Info("started")
	assert.Equal(t, "INFO: started\n", buf.String())
}
