package cloudevents

import (
	"time"
)

// SourceStockService is the CloudEvents source of every event this service emits
const SourceStockService = "/wms/stock-service"

// Extension attribute names
const (
	ExtCorrelationID = "wmscorrelationid"
	ExtWarehouseID   = "wmswarehouseid"
	ExtTraceParent   = "traceparent"
)

// WMSCloudEvent is a CloudEvents 1.0 envelope with WMS extensions
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WarehouseID   string `json:"wmswarehouseid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
}
