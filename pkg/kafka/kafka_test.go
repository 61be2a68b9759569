package kafka

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/config"
)

func TestEnabled(t *testing.T) {
	if Enabled(config.KafkaConfig{}) {
		t.Error("no brokers should mean disabled")
	}
	if !Enabled(config.KafkaConfig{Brokers: []string{"localhost:9092"}}) {
		t.Error("a broker should mean enabled")
	}
}

func TestDecodeJSON(t *testing.T) {
	type change struct {
		Title string `json:"title"`
	}
	got, err := DecodeJSON[change]([]byte(`{"title":"Python"}`))
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Python" {
		t.Errorf("Title = %q, want Python", got.Title)
	}
	if _, err := DecodeJSON[change]([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
