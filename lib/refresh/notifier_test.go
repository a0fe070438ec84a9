package refresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_SubscribeAndNotify(t *testing.T) {
	notifier := NewNotifier()

	waybillCalls := 0
	assetCalls := 0
	notifier.Subscribe(TopicWaybills, func() { waybillCalls++ })
	notifier.Subscribe(TopicWaybills, func() { waybillCalls++ })
	notifier.Subscribe(TopicAssets, func() { assetCalls++ })

	notifier.Notify(TopicWaybills)

	assert.Equal(t, 2, waybillCalls, "every waybill subscriber runs")
	assert.Equal(t, 0, assetCalls, "other topics are untouched")

	notifier.Notify(TopicAssets)
	assert.Equal(t, 1, assetCalls)
}

func TestNotifier_NotifyWithoutSubscribers(t *testing.T) {
	notifier := NewNotifier()

	// Must not panic
	notifier.Notify(TopicMaintenance)
}
