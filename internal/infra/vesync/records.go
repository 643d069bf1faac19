package vesync

import "vesync/internal/domain"

// Details is the live reading returned by the device detail endpoint.
type Details struct {
	Status     domain.PowerStatus `json:"deviceStatus"`
	ImageURL   string             `json:"deviceImg"`
	ActiveTime uint64             `json:"activeTime"`
	Energy     uint64             `json:"energy"`
	Power      float64            `json:"power"`
	Voltage    float64            `json:"voltage"`
}

var detailsFields = []string{"deviceStatus", "deviceImg", "activeTime", "energy", "power", "voltage"}

// EnergyConsumption is the weekly energy report. Data holds one sample per
// interval, oldest first.
type EnergyConsumption struct {
	Today       float64   `json:"energyConsumptionOfToday"`
	CostPerKWH  float64   `json:"costPerKWH"`
	MaxEnergy   float64   `json:"maxEnergy"`
	TotalEnergy float64   `json:"totalEnergy"`
	Currency    string    `json:"currency"`
	Data        []float64 `json:"data"`
}

var energyFields = []string{"energyConsumptionOfToday", "costPerKWH", "maxEnergy", "totalEnergy", "currency", "data"}

// Configuration is the per-device settings record. Cost and power limits are
// whole units as the API reports them.
type Configuration struct {
	DeviceName             string             `json:"deviceName"`
	ImageURL               string             `json:"deviceImg"`
	AllowNotify            domain.PowerStatus `json:"allowNotify"`
	CurrentFirmwareVersion float64            `json:"currentFirmVersion"`
	LatestFirmwareVersion  float64            `json:"latestFirmVersion"`
	Ownership              bool               `json:"ownerShip"`
	EnergySaving           domain.PowerStatus `json:"energySavingStatus"`
	PowerProtection        domain.PowerStatus `json:"powerProtectionStatus"`
	MaxCost                uint32             `json:"maxCost"`
	CostPerKWH             uint32             `json:"costPerKWH"`
	Threshold              uint32             `json:"threshHold"`
	MaxPower               uint32             `json:"maxPower"`
	SalesChannel           string             `json:"saleschannel"`
	IsUpgrading            bool               `json:"isUpgrading"`
}

var configurationFields = []string{
	"deviceName", "deviceImg", "allowNotify", "currentFirmVersion", "latestFirmVersion",
	"ownerShip", "energySavingStatus", "powerProtectionStatus", "maxCost", "costPerKWH",
	"threshHold", "maxPower", "saleschannel", "isUpgrading",
}

// deviceRecord is one entry of the device listing.
type deviceRecord struct {
	DeviceName         string                  `json:"deviceName"`
	DeviceImg          string                  `json:"deviceImg"`
	CID                string                  `json:"cid"`
	DeviceStatus       domain.PowerStatus      `json:"deviceStatus"`
	ConnectionType     string                  `json:"connectionType"`
	ConnectionStatus   domain.ConnectionStatus `json:"connectionStatus"`
	DeviceType         string                  `json:"deviceType"`
	Model              string                  `json:"model"`
	CurrentFirmVersion string                  `json:"currentFirmVersion"`
}

var deviceRecordFields = []string{
	"deviceName", "deviceImg", "cid", "deviceStatus", "connectionType",
	"connectionStatus", "deviceType", "model", "currentFirmVersion",
}
