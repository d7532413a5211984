//go:build darwin

package ax

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation -framework AppKit

#include <ApplicationServices/ApplicationServices.h>
#include <Foundation/Foundation.h>

// Private API used by every AX-based window manager to recover the
// CGWindowID behind an AXUIElementRef; there is no public accessor.
extern AXError _AXUIElementGetWindow(AXUIElementRef element, uint32_t *outWindow);

static AXUIElementRef ax_create_application(int pid) {
    return AXUIElementCreateApplication(pid);
}

static CFTypeRef ax_copy_attribute_value(AXUIElementRef element, CFStringRef attribute) {
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(element, attribute, &value);
    if (err != kAXErrorSuccess) {
        return NULL;
    }
    return value;
}

static int ax_set_attribute_value(AXUIElementRef element, CFStringRef attribute, CFTypeRef value) {
    AXError err = AXUIElementSetAttributeValue(element, attribute, value);
    return err == kAXErrorSuccess ? 0 : (int)err;
}

static void ax_set_messaging_timeout(AXUIElementRef element, float seconds) {
    AXUIElementSetMessagingTimeout(element, seconds);
}

static int ax_window_id(AXUIElementRef element, uint32_t *out) {
    AXError err = _AXUIElementGetWindow(element, out);
    return err == kAXErrorSuccess ? 0 : (int)err;
}

static int ax_windows_count(CFArrayRef windows) {
    if (windows == NULL) return 0;
    return (int)CFArrayGetCount(windows);
}

static AXUIElementRef ax_windows_get(CFArrayRef windows, int i) {
    return (AXUIElementRef)CFArrayGetValueAtIndex(windows, i);
}

static int ax_value_get_point(AXValueRef value, float *x, float *y) {
    CGPoint point;
    if (AXValueGetValue(value, kAXValueCGPointType, &point)) {
        *x = point.x;
        *y = point.y;
        return 1;
    }
    return 0;
}

static int ax_value_get_size(AXValueRef value, float *width, float *height) {
    CGSize size;
    if (AXValueGetValue(value, kAXValueCGSizeType, &size)) {
        *width = size.width;
        *height = size.height;
        return 1;
    }
    return 0;
}

static AXValueRef ax_value_create_point(float x, float y) {
    CGPoint p = CGPointMake(x, y);
    return AXValueCreate(kAXValueCGPointType, &p);
}

static AXValueRef ax_value_create_size(float w, float h) {
    CGSize s = CGSizeMake(w, h);
    return AXValueCreate(kAXValueCGSizeType, &s);
}

static int ax_get_bool_attribute(AXUIElementRef element, CFStringRef attribute, int *out) {
    CFTypeRef value = ax_copy_attribute_value(element, attribute);
    if (value == NULL) return 0;
    *out = CFBooleanGetValue((CFBooleanRef)value) ? 1 : 0;
    CFRelease(value);
    return 1;
}
*/
import "C"

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/state"
)

func cfstr(s string) C.CFStringRef {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return C.CFStringCreateWithCString(C.kCFAllocatorDefault, cs, C.kCFStringEncodingUTF8)
}

// darwinBackend is the production Backend: it talks to the macOS
// Accessibility API directly via cgo.
type darwinBackend struct{}

// NewDarwinBackend returns the cgo-backed Backend. The caller's process
// must be AX-trusted (see IsTrusted/RequestTrust) before any call
// succeeds.
func NewDarwinBackend() Backend {
	return darwinBackend{}
}

// IsTrusted reports whether this process currently holds Accessibility
// permission.
func IsTrusted() bool {
	return C.AXIsProcessTrusted() != 0
}

// RequestTrust prompts the user to grant Accessibility permission if it
// is not already held.
func RequestTrust() {
	options := C.CFDictionaryCreateMutable(C.kCFAllocatorDefault, 1,
		&C.kCFTypeDictionaryKeyCallBacks, &C.kCFTypeDictionaryValueCallBacks)
	defer C.CFRelease(C.CFTypeRef(options))
	key := unsafe.Pointer(C.kAXTrustedCheckOptionPrompt)
	C.CFDictionarySetValue(options, key, unsafe.Pointer(C.kCFBooleanTrue))
	C.AXIsProcessTrustedWithOptions(C.CFDictionaryRef(options))
}

func (darwinBackend) OpenApp(ctx context.Context, pid state.PID) (AppSession, error) {
	ref := C.ax_create_application(C.int(pid))
	if ref == 0 {
		return nil, fmt.Errorf("ax: create application element for pid %d failed", pid)
	}
	C.ax_set_messaging_timeout(ref, 0.1)

	sess := &darwinSession{app: ref}
	runtime.SetFinalizer(sess, func(s *darwinSession) {
		if s.app != 0 {
			C.CFRelease(C.CFTypeRef(s.app))
		}
	})

	sess.suppressAnimation()
	return sess, nil
}

// darwinSession is one app's AX connection for the lifetime of a batch.
type darwinSession struct {
	app              C.AXUIElementRef
	hadAnimationAttr bool
	prevAnimation    bool
}

const axEnhancedUserInterface = "AXEnhancedUserInterface"

func (s *darwinSession) suppressAnimation() {
	attr := cfstr(axEnhancedUserInterface)
	defer C.CFRelease(C.CFTypeRef(attr))

	var current C.int
	if C.ax_get_bool_attribute(s.app, attr, &current) == 0 {
		return
	}
	s.hadAnimationAttr = true
	s.prevAnimation = current != 0
	if s.prevAnimation {
		C.ax_set_attribute_value(s.app, attr, C.CFTypeRef(C.kCFBooleanFalse))
	}
}

// findWindowElement scans app's AXWindows for the element whose CGWindowID
// matches wid. There is no direct "open by id" AX call. The returned
// element is already CFRetain'd; the caller owns releasing it.
func findWindowElement(app C.AXUIElementRef, wid state.WinID) (C.AXUIElementRef, bool) {
	attr := cfstr("AXWindows")
	defer C.CFRelease(C.CFTypeRef(attr))

	value := C.ax_copy_attribute_value(app, attr)
	if value == 0 {
		return 0, false
	}
	windows := C.CFArrayRef(value)
	defer C.CFRelease(C.CFTypeRef(windows))

	n := int(C.ax_windows_count(windows))
	for i := 0; i < n; i++ {
		ref := C.ax_windows_get(windows, C.int(i))
		var gotID C.uint32_t
		if C.ax_window_id(ref, &gotID) != 0 {
			continue
		}
		if state.WinID(gotID) == wid {
			C.CFRetain(C.CFTypeRef(ref))
			return ref, true
		}
	}
	return 0, false
}

// Window locates the AXUIElementRef among this app's windows whose
// CGWindowID matches wid.
func (s *darwinSession) Window(wid state.WinID) (WindowHandle, error) {
	ref, ok := findWindowElement(s.app, wid)
	if !ok {
		return nil, fmt.Errorf("ax: window %d not found", wid)
	}
	h := &darwinWindow{ref: ref}
	runtime.SetFinalizer(h, func(h *darwinWindow) {
		if h.ref != 0 {
			C.CFRelease(C.CFTypeRef(h.ref))
		}
	})
	return h, nil
}

func (s *darwinSession) Close() {
	if s.hadAnimationAttr && s.prevAnimation {
		attr := cfstr(axEnhancedUserInterface)
		defer C.CFRelease(C.CFTypeRef(attr))
		C.ax_set_attribute_value(s.app, attr, C.CFTypeRef(C.kCFBooleanTrue))
	}
	if s.app != 0 {
		C.CFRelease(C.CFTypeRef(s.app))
		s.app = 0
		runtime.SetFinalizer(s, nil)
	}
}

type darwinWindow struct {
	ref C.AXUIElementRef
}

func (w *darwinWindow) GetFrame() (geom.Frame, error) {
	posAttr := cfstr("AXPosition")
	sizeAttr := cfstr("AXSize")
	defer C.CFRelease(C.CFTypeRef(posAttr))
	defer C.CFRelease(C.CFTypeRef(sizeAttr))

	posVal := C.ax_copy_attribute_value(w.ref, posAttr)
	if posVal == 0 {
		return geom.Frame{}, fmt.Errorf("ax: read AXPosition failed")
	}
	defer C.CFRelease(posVal)

	sizeVal := C.ax_copy_attribute_value(w.ref, sizeAttr)
	if sizeVal == 0 {
		return geom.Frame{}, fmt.Errorf("ax: read AXSize failed")
	}
	defer C.CFRelease(sizeVal)

	var x, y, width, height C.float
	if C.ax_value_get_point(C.AXValueRef(posVal), &x, &y) == 0 {
		return geom.Frame{}, fmt.Errorf("ax: decode AXPosition failed")
	}
	if C.ax_value_get_size(C.AXValueRef(sizeVal), &width, &height) == 0 {
		return geom.Frame{}, fmt.Errorf("ax: decode AXSize failed")
	}

	return geom.Frame{X: float64(x), Y: float64(y), W: float64(width), H: float64(height)}, nil
}

func (w *darwinWindow) SetFrame(f geom.Frame, positionOnly bool) error {
	posAttr := cfstr("AXPosition")
	defer C.CFRelease(C.CFTypeRef(posAttr))

	posVal := C.ax_value_create_point(C.float(f.X), C.float(f.Y))
	defer C.CFRelease(C.CFTypeRef(posVal))
	if C.ax_set_attribute_value(w.ref, posAttr, C.CFTypeRef(posVal)) != 0 {
		return fmt.Errorf("ax: set AXPosition failed")
	}
	if positionOnly {
		return nil
	}

	sizeAttr := cfstr("AXSize")
	defer C.CFRelease(C.CFTypeRef(sizeAttr))
	sizeVal := C.ax_value_create_size(C.float(f.W), C.float(f.H))
	defer C.CFRelease(C.CFTypeRef(sizeVal))
	if C.ax_set_attribute_value(w.ref, sizeAttr, C.CFTypeRef(sizeVal)) != 0 {
		return fmt.Errorf("ax: set AXSize failed")
	}
	return nil
}
