package config

import (
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "yaml list", in: []string{"10.0.0.1", "10.0.0.0/8"}, want: []string{"10.0.0.1", "10.0.0.0/8"}},
		{name: "env comma separated", in: []string{"mon, tue ,wed"}, want: []string{"mon", "tue", "wed"}},
		{name: "blanks dropped", in: []string{"", " , "}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateLLMConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LLMConfig
		wantErr bool
	}{
		{name: "empty", cfg: LLMConfig{}, wantErr: true},
		{name: "all disabled", cfg: LLMConfig{Providers: []ProviderConfig{{Name: "gemini", Model: "m", Priority: 1}}}, wantErr: true},
		{name: "missing model", cfg: LLMConfig{Providers: []ProviderConfig{{Name: "gemini", Enabled: true, Priority: 1}}}, wantErr: true},
		{name: "duplicate priority", cfg: LLMConfig{Providers: []ProviderConfig{
			{Name: "gemini", Model: "m", Enabled: true, Priority: 1, APIKey: "k"},
			{Name: "deepseek", Model: "m", Enabled: true, Priority: 1, APIKey: "k"},
		}}, wantErr: true},
		{name: "ok", cfg: LLMConfig{Providers: []ProviderConfig{
			{Name: "gemini", Model: "m", Enabled: true, Priority: 1, APIKey: "k"},
			{Name: "deepseek", Model: "m", Enabled: false, Priority: 1},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLLMConfig(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
