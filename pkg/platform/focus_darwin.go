//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework AppKit
#import <Cocoa/Cocoa.h>
#import <AppKit/AppKit.h>

int isAppActive() {
    return [NSApp isActive] ? 1 : 0;
}

void activateApp() {
    [NSApp activateIgnoringOtherApps:YES];
}
*/
import "C"

// BringToFront activates the app so a ringing alarm is in front of the user.
// It does nothing when the app already has focus.
func BringToFront() {
	if C.isAppActive() == 1 {
		return
	}
	C.activateApp()
}
