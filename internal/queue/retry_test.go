package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestShipmentSubmitPolicy(t *testing.T) {
	policy := PolicyFor(TaskShipmentSubmit)
	require.Equal(t, 3, policy.MaxAttempts)
	require.Equal(t, 2, policy.MaxRetry())
	require.Equal(t, 30*time.Second, policy.Delay(0))
	require.Equal(t, 60*time.Second, policy.Delay(1))
	require.Equal(t, 120*time.Second, policy.Delay(2))
	require.Equal(t, 120*time.Second, policy.Delay(9))
}

func TestRetryDelayUsesTaskPolicy(t *testing.T) {
	task := asynq.NewTask(TaskOrderShippingCost, nil)
	require.Equal(t, 30*time.Second, RetryDelay(0, errors.New("boom"), task))
	require.Equal(t, 120*time.Second, RetryDelay(1, errors.New("boom"), task))
	require.Equal(t, 300*time.Second, RetryDelay(2, errors.New("boom"), task))
}

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(nil)
	require.NoError(t, err)
	require.False(t, client.Enabled())
	require.NoError(t, client.EnqueueShipmentSubmit(1))
	require.NoError(t, client.EnqueueTrackingSync(1, time.Minute))
}

func TestSetMaxAttemptsOverridesCopy(t *testing.T) {
	client, err := NewClient(nil)
	require.NoError(t, err)
	client.SetMaxAttempts(TaskShipmentSubmit, 5)
	require.Equal(t, 5, client.Policy(TaskShipmentSubmit).MaxAttempts)
	require.Equal(t, 3, PolicyFor(TaskShipmentSubmit).MaxAttempts)
	require.Equal(t, 30*time.Second, client.Policy(TaskShipmentSubmit).Delay(0))
}
