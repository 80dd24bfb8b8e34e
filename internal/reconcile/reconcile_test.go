package reconcile

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/switchboard/internal/event"
	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var receipt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Project{},
		&models.Call{},
		&models.AgentLog{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func callCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Call{}).Count(&n).Error; err != nil {
		t.Fatalf("count calls: %v", err)
	}
	return n
}

func TestResolveProject(t *testing.T) {
	db := openTestDB(t)
	db.Create(&models.Project{OrgID: 1, Slug: "acme", IsActive: true})
	db.Create(&models.Project{OrgID: 1, Slug: "dormant", IsActive: false})

	r := New(db)

	if p := r.ResolveProject("acme"); p == nil || p.OrgID != 1 {
		t.Errorf("ResolveProject(acme) = %+v, want active project", p)
	}
	if p := r.ResolveProject("ghost"); p != nil {
		t.Errorf("ResolveProject(ghost) = %+v, want nil", p)
	}
	if p := r.ResolveProject("dormant"); p != nil {
		t.Errorf("ResolveProject(dormant) = %+v, want nil", p)
	}
}

func TestExternalRef(t *testing.T) {
	tests := []struct {
		name string
		ne   event.NormalizedEvent
		want string
	}{
		{"sid wins", event.NormalizedEvent{RoomSID: "RM1", RoomName: "support"}, "RM1"},
		{"name fallback", event.NormalizedEvent{RoomName: "support"}, "support"},
		{"synthesized", event.NormalizedEvent{}, "noref-1709294400000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExternalRef(tt.ne, receipt); got != tt.want {
				t.Errorf("ExternalRef = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApply_RoomStartedIdempotent(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	ne := event.NormalizedEvent{Kind: KindRoomStarted, RoomSID: "RM1", OccurredAt: receipt}
	for i := 0; i < 2; i++ {
		if err := r.Apply(1, ne, receipt); err != nil {
			t.Fatalf("Apply #%d: %v", i+1, err)
		}
	}

	if n := callCount(t, db); n != 1 {
		t.Fatalf("got %d call rows, want 1", n)
	}
	var call models.Call
	db.Where("org_id = ? AND external_ref = ?", 1, "RM1").First(&call)
	if !call.StartedAt.Equal(receipt) {
		t.Errorf("StartedAt = %v, want %v", call.StartedAt, receipt)
	}
	if call.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil", call.EndedAt)
	}
}

func TestApply_RoomStartedFallbackRef(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	ne := event.NormalizedEvent{Kind: KindRoomStarted, OccurredAt: receipt}
	if err := r.Apply(1, ne, receipt); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var call models.Call
	if err := db.First(&call).Error; err != nil {
		t.Fatalf("no call row created: %v", err)
	}
	if !strings.HasPrefix(call.ExternalRef, "noref-") {
		t.Errorf("ExternalRef = %q, want noref- prefix", call.ExternalRef)
	}
}

func TestApply_RedeliveredStartKeepsEndedAt(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	ended := receipt.Add(time.Minute)
	secs := 60
	db.Create(&models.Call{
		OrgID: 1, ExternalRef: "RM1",
		StartedAt: receipt, EndedAt: &ended, DurationSeconds: &secs,
		Tags: "[]",
	})

	ne := event.NormalizedEvent{Kind: KindRoomStarted, RoomSID: "RM1", OccurredAt: receipt.Add(time.Hour)}
	if err := r.Apply(1, ne, receipt.Add(time.Hour)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var call models.Call
	db.Where("external_ref = ?", "RM1").First(&call)
	if call.EndedAt == nil || !call.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %v untouched", call.EndedAt, ended)
	}
	if !call.StartedAt.Equal(receipt) {
		t.Errorf("StartedAt = %v, want %v untouched", call.StartedAt, receipt)
	}
}

func TestApply_RoomFinished(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	start := event.NormalizedEvent{Kind: KindRoomStarted, RoomSID: "RM1", OccurredAt: receipt}
	if err := r.Apply(1, start, receipt); err != nil {
		t.Fatalf("start: %v", err)
	}

	finish := event.NormalizedEvent{Kind: KindRoomFinished, RoomSID: "RM1", OccurredAt: receipt.Add(90 * time.Second)}
	if err := r.Apply(1, finish, receipt.Add(90*time.Second)); err != nil {
		t.Fatalf("finish: %v", err)
	}

	var call models.Call
	db.Where("org_id = ? AND external_ref = ?", 1, "RM1").First(&call)
	if call.EndedAt == nil {
		t.Fatal("EndedAt not set")
	}
	if !call.EndedAt.Equal(receipt.Add(90 * time.Second)) {
		t.Errorf("EndedAt = %v", call.EndedAt)
	}
	if call.DurationSeconds == nil || *call.DurationSeconds != 90 {
		t.Errorf("DurationSeconds = %v, want 90", call.DurationSeconds)
	}
	if !call.StartedAt.Equal(receipt) {
		t.Errorf("StartedAt changed: %v", call.StartedAt)
	}
}

func TestApply_RoomFinishedViaName(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	start := event.NormalizedEvent{Kind: KindRoomStarted, RoomName: "support", OccurredAt: receipt}
	if err := r.Apply(1, start, receipt); err != nil {
		t.Fatalf("start: %v", err)
	}
	finish := event.NormalizedEvent{Kind: KindRoomFinished, RoomName: "support", OccurredAt: receipt.Add(time.Minute)}
	if err := r.Apply(1, finish, receipt.Add(time.Minute)); err != nil {
		t.Fatalf("finish: %v", err)
	}

	var call models.Call
	db.Where("external_ref = ?", "support").First(&call)
	if call.EndedAt == nil {
		t.Error("EndedAt not set for name-keyed call")
	}
}

func TestApply_FinishBeforeStart(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	finish := event.NormalizedEvent{Kind: KindRoomFinished, RoomSID: "RM1", OccurredAt: receipt}
	if err := r.Apply(1, finish, receipt); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n := callCount(t, db); n != 0 {
		t.Errorf("got %d call rows, want 0", n)
	}
}

func TestApply_FinishWithoutIdentity(t *testing.T) {
	db := openTestDB(t)
	r := New(db)
	db.Create(&models.Call{OrgID: 1, ExternalRef: "RM1", StartedAt: receipt, Tags: "[]"})

	finish := event.NormalizedEvent{Kind: KindRoomFinished, OccurredAt: receipt.Add(time.Minute)}
	if err := r.Apply(1, finish, receipt.Add(time.Minute)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var call models.Call
	db.Where("external_ref = ?", "RM1").First(&call)
	if call.EndedAt != nil {
		t.Error("identity-less finish must not close anything")
	}
}

func TestApply_RedeliveredFinishKeepsFirstClose(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	r.Apply(1, event.NormalizedEvent{Kind: KindRoomStarted, RoomSID: "RM1", OccurredAt: receipt}, receipt)
	first := receipt.Add(time.Minute)
	r.Apply(1, event.NormalizedEvent{Kind: KindRoomFinished, RoomSID: "RM1", OccurredAt: first}, first)

	later := receipt.Add(time.Hour)
	if err := r.Apply(1, event.NormalizedEvent{Kind: KindRoomFinished, RoomSID: "RM1", OccurredAt: later}, later); err != nil {
		t.Fatalf("redelivered finish: %v", err)
	}

	var call models.Call
	db.Where("external_ref = ?", "RM1").First(&call)
	if call.EndedAt == nil || !call.EndedAt.Equal(first) {
		t.Errorf("EndedAt = %v, want first close %v", call.EndedAt, first)
	}
}

func TestApply_OtherKindNoMutation(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	ne := event.NormalizedEvent{Kind: "participant_joined", RoomSID: "RM1", OccurredAt: receipt}
	if err := r.Apply(1, ne, receipt); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n := callCount(t, db); n != 0 {
		t.Errorf("got %d call rows, want 0", n)
	}
}

func TestApply_OrgScoping(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	// Same ref in two orgs is two separate calls.
	ne := event.NormalizedEvent{Kind: KindRoomStarted, RoomSID: "RM1", OccurredAt: receipt}
	if err := r.Apply(1, ne, receipt); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(2, ne, receipt); err != nil {
		t.Fatal(err)
	}
	if n := callCount(t, db); n != 2 {
		t.Fatalf("got %d call rows, want 2", n)
	}

	// Closing in org 2 leaves org 1 open.
	finish := event.NormalizedEvent{Kind: KindRoomFinished, RoomSID: "RM1", OccurredAt: receipt.Add(time.Minute)}
	if err := r.Apply(2, finish, receipt.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	var open models.Call
	db.Where("org_id = ? AND external_ref = ?", 1, "RM1").First(&open)
	if open.EndedAt != nil {
		t.Error("close leaked across organizations")
	}
}

func TestAppendAudit(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	raw := []byte(`{"event":"room_started","room":{"sid":"RM1"}}`)
	if err := r.AppendAudit(1, "room_started", raw); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}

	var row models.AgentLog
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("no audit row: %v", err)
	}
	if row.OrgID != 1 || row.Level != "debug" || row.Event != "room_started" {
		t.Errorf("audit row = %+v", row)
	}
	if row.Meta != string(raw) {
		t.Errorf("Meta = %q", row.Meta)
	}
}

func TestAppendAudit_UnknownEvent(t *testing.T) {
	db := openTestDB(t)
	r := New(db)

	if err := r.AppendAudit(1, "", []byte(`{}`)); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}
	var row models.AgentLog
	db.First(&row)
	if row.Event != "unknown_event" {
		t.Errorf("Event = %q, want unknown_event", row.Event)
	}
}
