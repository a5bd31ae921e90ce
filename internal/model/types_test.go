package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelope_NotificationFrame(t *testing.T) {
	frame := `{
		"type": "notification",
		"data": {
			"id": "ntf-81",
			"type": "error",
			"title": "Call failures spiking",
			"message": "Error rate on outbound calls exceeded 5%",
			"timestamp": "2024-03-10T14:30:00Z",
			"priority": "high",
			"category": "calls",
			"read": false
		},
		"timestamp": "2024-03-10T14:30:01Z"
	}`

	var env Envelope
	if err := json.Unmarshal([]byte(frame), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != TypeNotification {
		t.Errorf("Type = %q, want %q", env.Type, TypeNotification)
	}
	if !env.Timestamp.Equal(time.Date(2024, 3, 10, 14, 30, 1, 0, time.UTC)) {
		t.Errorf("Timestamp = %v", env.Timestamp)
	}

	var n Notification
	if err := json.Unmarshal(env.Data, &n); err != nil {
		t.Fatalf("unmarshal notification: %v", err)
	}
	if n.ID != "ntf-81" || n.Type != NotificationError || n.Priority != PriorityHigh {
		t.Errorf("notification = %+v", n)
	}
	if n.Category != "calls" || n.Read {
		t.Errorf("notification = %+v", n)
	}
}

func TestEnvelope_MetricsFrame(t *testing.T) {
	frame := `{"type":"metrics","data":{"activeUsers":142,"totalCalls":10312,"systemLoad":61.4,"errorRate":0.8,"responseTime":210.5,"timestamp":"2024-03-10T14:30:00Z"}}`

	var env Envelope
	if err := json.Unmarshal([]byte(frame), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	var m Metrics
	if err := json.Unmarshal(env.Data, &m); err != nil {
		t.Fatalf("unmarshal metrics: %v", err)
	}
	if m.ActiveUsers != 142 {
		t.Errorf("ActiveUsers = %d, want 142", m.ActiveUsers)
	}
	if m.TotalCalls != 10312 {
		t.Errorf("TotalCalls = %d, want 10312", m.TotalCalls)
	}
	if m.SystemLoad != 61.4 || m.ErrorRate != 0.8 || m.ResponseTime != 210.5 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestEnvelope_UserActivityDetailsPassthrough(t *testing.T) {
	frame := `{"type":"user_activity","data":{"userId":"u-7","action":"agent.updated","details":{"agentId":"a-3","fields":["voice","prompt"]}}}`

	var env Envelope
	if err := json.Unmarshal([]byte(frame), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	var a UserActivity
	if err := json.Unmarshal(env.Data, &a); err != nil {
		t.Fatalf("unmarshal user activity: %v", err)
	}
	if a.UserID != "u-7" || a.Action != "agent.updated" {
		t.Errorf("activity = %+v", a)
	}

	// Details stays raw for the consumer to interpret.
	var details struct {
		AgentID string   `json:"agentId"`
		Fields  []string `json:"fields"`
	}
	if err := json.Unmarshal(a.Details, &details); err != nil {
		t.Fatalf("unmarshal details: %v", err)
	}
	if details.AgentID != "a-3" || len(details.Fields) != 2 {
		t.Errorf("details = %+v", details)
	}
}

func TestCommands_WireFieldNames(t *testing.T) {
	tests := []struct {
		name string
		cmd  any
		want string
	}{
		{
			name: "subscribe",
			cmd:  SubscribeCommand{Type: TypeSubscribe, Categories: []string{"calls", "billing"}},
			want: `{"type":"subscribe","categories":["calls","billing"]}`,
		},
		{
			name: "request metrics",
			cmd:  RequestMetricsCommand{Type: TypeRequestMetrics},
			want: `{"type":"request_metrics"}`,
		},
		{
			name: "mark read",
			cmd:  MarkReadCommand{Type: TypeMarkRead, NotificationID: "ntf-81"},
			want: `{"type":"mark_read","notificationId":"ntf-81"}`,
		},
		{
			name: "ping",
			cmd:  PingCommand{Type: TypePing},
			want: `{"type":"ping"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.cmd)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("wire = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestEnvelope_MissingDataStaysNil(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"type":"pong"}`), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != TypePong {
		t.Errorf("Type = %q, want %q", env.Type, TypePong)
	}
	if env.Data != nil {
		t.Errorf("Data = %s, want nil", env.Data)
	}
}
