package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/janhq/money-coach/internal/domain/chatsession"
)

func TestTurnRecorder_FoldsUnknownChatTypes(t *testing.T) {
	recorder := NewTurnRecorder()
	before := testutil.ToFloat64(TurnsTotal.WithLabelValues("persisted", "invalid", "validation"))

	recorder.RecordTurn(chatsession.ModePersisted, "retirement", "validation", time.Millisecond)
	recorder.RecordTurn(chatsession.ModePersisted, "crypto", "validation", time.Millisecond)
	recorder.RecordTurn(chatsession.ModePersisted, "income", "ok", time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(TurnsTotal.WithLabelValues("persisted", "invalid", "validation")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(TurnsTotal.WithLabelValues("persisted", "INCOME", "ok")), 1.0)
}

func TestRecordUpstream_CountsFailuresOnly(t *testing.T) {
	before := testutil.ToFloat64(UpstreamFailuresTotal.WithLabelValues("DEBT", "timeout"))

	RecordUpstream("DEBT", "", time.Second)
	RecordUpstream("DEBT", "timeout", time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(UpstreamFailuresTotal.WithLabelValues("DEBT", "timeout")))
}

func TestRecordWebhookEvent_DefaultsType(t *testing.T) {
	before := testutil.ToFloat64(WebhookEventsTotal.WithLabelValues("unknown", "rejected_signature"))
	RecordWebhookEvent("", "rejected_signature")
	assert.Equal(t, before+1, testutil.ToFloat64(WebhookEventsTotal.WithLabelValues("unknown", "rejected_signature")))
}

func TestRecordProvisioning_SkipsKnownUsers(t *testing.T) {
	before := testutil.ToFloat64(UsersProvisionedTotal.WithLabelValues("created"))

	RecordProvisioning("existing")
	RecordProvisioning("")
	RecordProvisioning("created")

	assert.Equal(t, before+1, testutil.ToFloat64(UsersProvisionedTotal.WithLabelValues("created")))
	assert.Zero(t, testutil.ToFloat64(UsersProvisionedTotal.WithLabelValues("existing")))
}
