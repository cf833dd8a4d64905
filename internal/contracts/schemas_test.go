package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyFromPath(t *testing.T) {
	assert.Equal(t, "RealtimeEventEvent/1.0.0", generateKeyFromPath("schemas/events/realtime-event/v1.json"))
	assert.Equal(t, "", generateKeyFromPath("schemas/events/bad-path/extra/v1.json"))
}

func TestValidateEvent_AcceptsWellFormedEvent(t *testing.T) {
	body := []byte(`{"type":"task.created","workspaceId":"w1","data":{"taskId":"t1"}}`)
	assert.NoError(t, ValidateEvent("RealtimeEventEvent", "1.0.0", body))
}

func TestValidateEvent_RejectsMissingFields(t *testing.T) {
	body := []byte(`{"type":"task.created"}`)
	assert.Error(t, ValidateEvent("RealtimeEventEvent", "1.0.0", body))
}

func TestValidateEvent_RejectsUnknownProperties(t *testing.T) {
	body := []byte(`{"type":"task.created","workspaceId":"w1","data":{},"extra":true}`)
	assert.Error(t, ValidateEvent("RealtimeEventEvent", "1.0.0", body))
}

func TestValidateEvent_RejectsEmptyWorkspace(t *testing.T) {
	body := []byte(`{"type":"task.created","workspaceId":"","data":{}}`)
	assert.Error(t, ValidateEvent("RealtimeEventEvent", "1.0.0", body))
}

func TestValidateEvent_UnknownSchema(t *testing.T) {
	err := ValidateEvent("MysteryEvent", "9.0.0", []byte(`{}`))
	assert.Error(t, err)
}

func TestValidateEvent_InvalidJSON(t *testing.T) {
	err := ValidateEvent("RealtimeEventEvent", "1.0.0", []byte(`{not json`))
	assert.Error(t, err)
}
