//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
#import <Cocoa/Cocoa.h>

int
SetActivationPolicy(void) {
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
    return 0;
}
*/
import "C"

// SetActivationPolicy keeps the app out of the Dock so it lives in the menu
// bar only.
func SetActivationPolicy() {
	C.SetActivationPolicy()
}
