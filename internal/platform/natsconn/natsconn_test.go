package natsconn

import (
	"testing"
	"time"
)

func TestEnvInt_Fallback(t *testing.T) {
	if v := envInt("TRACKONA_TEST_UNSET", 42); v != 42 {
		t.Fatalf("envInt = %d, want fallback 42", v)
	}
}

func TestEnvInt_FromEnv(t *testing.T) {
	t.Setenv("TRACKONA_TEST_INT", "7")
	if v := envInt("TRACKONA_TEST_INT", 42); v != 7 {
		t.Fatalf("envInt = %d, want 7", v)
	}
}

func TestEnvInt_NegativeRejected(t *testing.T) {
	t.Setenv("TRACKONA_TEST_INT", "-3")
	if v := envInt("TRACKONA_TEST_INT", 42); v != 42 {
		t.Fatalf("envInt = %d, want fallback for a negative value", v)
	}
}

func TestEnvDuration_Fallback(t *testing.T) {
	if v := envDuration("TRACKONA_TEST_UNSET", 5*time.Second); v != 5*time.Second {
		t.Fatalf("envDuration = %s, want fallback 5s", v)
	}
}

func TestEnvDuration_FromEnv(t *testing.T) {
	t.Setenv("TRACKONA_TEST_DUR", "3s")
	if v := envDuration("TRACKONA_TEST_DUR", 5*time.Second); v != 3*time.Second {
		t.Fatalf("envDuration = %s, want 3s", v)
	}
}

func TestConnect_UnreachableBrokerFailsFast(t *testing.T) {
	_, err := Connect(Options{
		URL:           "nats://127.0.0.1:19999",
		MaxReconnects: 0,
		ReconnectWait: 10 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected an error dialing an unreachable broker")
	}
}
