package model

import (
	"time"
)

// Connection statuses for a gateway instance.
const (
	InstanceDisconnected = "disconnected"
	InstanceConnecting   = "connecting"
	InstanceConnected    = "connected"
	InstanceQRCode       = "qrcode"
)

// connectionStates maps the raw connection states emitted by the gateway's
// connection update events onto instance statuses.
var connectionStates = map[string]string{
	"open":       InstanceConnected,
	"connecting": InstanceConnecting,
	"close":      InstanceDisconnected,
}

// MapConnectionState translates a raw gateway connection state. Unknown
// states return false and leave the stored status untouched.
func MapConnectionState(state string) (string, bool) {
	status, ok := connectionStates[state]
	return status, ok
}

// GatewayInstance is one provisioned WhatsApp session on the gateway.
type GatewayInstance struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	InstanceName     string    `gorm:"column:instance_name;type:text;uniqueIndex:idx_instances_instance_name" json:"instance_name" validate:"required"`
	InstanceID       string    `gorm:"column:instance_id;type:text" json:"instance_id"`
	APIKey           string    `gorm:"column:api_key;type:text" json:"-"`
	IntegrationType  string    `gorm:"column:integration_type;type:text" json:"integration_type"`
	ConnectionStatus string    `gorm:"column:connection_status;type:text" json:"connection_status"`
	PhoneNumber      string    `gorm:"column:phone_number;type:text" json:"phone_number"`
	QRCodeBase64     string    `gorm:"column:qr_code_base64;type:text" json:"qr_code_base64,omitempty"`
	IsActive         bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (GatewayInstance) TableName() string {
	return "gateway_instances"
}
