package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://payment-gateway.qoin.id", want: "Payment Gateway Health Check"},
		{url: "https://payment-gateway.qoin.id/health", want: "Payment Gateway Health Check"},
		{url: "https://foo-bar.qoinhub.id", want: "Foo Bar Health Check"},
		{url: "https://foo-bar.qoinhub.id:8443/path", want: "Foo Bar:8443 Health Check"},
		{url: "https://API-Server.qoin.id", want: "Api Server Health Check"},
		{url: "https://api.qoin.id.example.com", want: "Api.example.com Health Check"},
		{url: "https://status.example.com", want: "Status.example.com Health Check"},
		{url: "https://a--b.qoin.id", want: "A  B Health Check"},
		{url: "https://user@core-api.qoin.id", want: "User@core Api Health Check"},
		{url: "payment-gateway.qoin.id", want: " Health Check"},
		{url: "://bad", want: " Health Check"},
		{url: "//edge-proxy.qoin.id/status", want: "Edge Proxy Health Check"},
		{url: "https://my-svc.qoin.id:80a/x", want: "My Svc:80a Health Check"},
		{url: "https://foo bar.qoin.id", want: "Foo bar Health Check"},
		{url: "https://core-api.qoin.id?check=1#top", want: "Core Api Health Check"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, MonitorName(tt.url))
		})
	}
}

func TestNetloc(t *testing.T) {
	assert.Equal(t, "user:pa ss@host:80a", netloc("HTTPS://user:pa ss@host:80a/path"))
	assert.Equal(t, "", netloc("1http://host"))
	assert.Equal(t, "", netloc("mailto:ops@qoin.id"))
	assert.Equal(t, "", netloc(""))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Gateway", capitalize("gateway"))
	assert.Equal(t, "Gateway", capitalize("GATEWAY"))
	assert.Equal(t, "Ésprit", capitalize("ésprit"))
	assert.Equal(t, "8443", capitalize("8443"))
}
