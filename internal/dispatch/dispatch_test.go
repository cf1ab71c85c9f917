package dispatch

import (
	"context"
	"testing"
)

func TestDryRun(t *testing.T) {
	var d DryRun
	for _, ch := range []Channel{Primary, Fallback} {
		out := d.Send(context.Background(), ch, "+15551234567", "hello")
		if !out.Success {
			t.Errorf("DryRun on %s: Success = false, want true", ch)
		}
		if out.Info != "dry-run" {
			t.Errorf("DryRun on %s: Info = %q, want dry-run", ch, out.Info)
		}
	}
}

func TestOsascriptScriptSelection(t *testing.T) {
	o := &Osascript{PrimaryScript: "send_imessage.applescript", FallbackScript: "send_sms_only.applescript"}

	if got := o.script(Primary); got != "send_imessage.applescript" {
		t.Errorf("script(Primary) = %q", got)
	}
	if got := o.script(Fallback); got != "send_sms_only.applescript" {
		t.Errorf("script(Fallback) = %q", got)
	}
}

func TestOsascriptMissingScriptFails(t *testing.T) {
	o := &Osascript{PrimaryScript: "/nonexistent/sender.applescript", FallbackScript: "/nonexistent/sms.applescript"}
	out := o.Send(context.Background(), Primary, "+15551234567", "hello")
	if out.Success {
		t.Fatal("expected failure for missing script/binary")
	}
	if out.Info == "" {
		t.Error("expected diagnostic text on failure")
	}
}
