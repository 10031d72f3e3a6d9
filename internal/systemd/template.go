// Package systemd generates and checks the copilotd service unit.
package systemd

// UnitTemplate returns the systemd unit for running copilotd as a
// hardened system service.
func UnitTemplate() string {
	return `[Unit]
Description=copilotd driving-safety voice command gateway
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=/usr/local/bin/copilotd serve --config /etc/copilotd/config.yaml
Restart=on-failure
RestartSec=2
NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=strict
ProtectHome=true
ReadWritePaths=/var/lib/copilotd

[Install]
WantedBy=multi-user.target
`
}
