//go:build darwin

package ax

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation

#include <ApplicationServices/ApplicationServices.h>
#include <stdint.h>

extern void goAXWatcherCallback(uintptr_t handle);

static void ax_watcher_callback(AXObserverRef observer, AXUIElementRef element, CFStringRef notification, void *refcon) {
    (void)observer;
    (void)element;
    (void)notification;
    goAXWatcherCallback((uintptr_t)refcon);
}

static AXObserverRef ax_observer_create(int pid) {
    AXObserverRef obs = NULL;
    AXError err = AXObserverCreate(pid, ax_watcher_callback, &obs);
    if (err != kAXErrorSuccess) {
        return NULL;
    }
    return obs;
}

static int ax_observer_add(AXObserverRef observer, AXUIElementRef element, CFStringRef notification, void *refcon) {
    AXError err = AXObserverAddNotification(observer, element, notification, refcon);
    return err == kAXErrorSuccess ? 0 : (int)err;
}

static void ax_observer_remove(AXObserverRef observer, AXUIElementRef element, CFStringRef notification) {
    AXObserverRemoveNotification(observer, element, notification);
}

static CFRunLoopSourceRef ax_observer_source(AXObserverRef observer) {
    return AXObserverGetRunLoopSource(observer);
}
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/codexwm/codex/internal/state"
)

// darwinWatcher is a per-window AXObserver watching kAXMovedNotification/
// kAXResizedNotification (spec.md §3 "UI watcher", grounded on
// other_examples/.../winsnap_darwin.go's AXObserverCreate +
// AXObserverAddNotification(kAXMovedNotification/kAXResizedNotification)
// pattern). Start runs a dedicated CFRunLoop on its own OS thread; Stop
// tears it down. onChange fires on every OS-initiated move/resize — the
// Window Lifecycle stops/restarts this watcher around its own
// programmatic writes so self-triggered notifications never reach it
// (spec.md §5 "UI-watcher feedback prevention").
type darwinWatcher struct {
	pid      state.PID
	wid      state.WinID
	onChange func()

	mu      sync.Mutex
	handle  cgo.Handle
	stop    chan struct{}
	stopped chan struct{}
}

// NewWatcherFactory returns a state.WatcherFactory producing AXObserver-
// backed watchers for darwin. onChange is invoked (off the caller's
// goroutine) whenever the OS moves or resizes the watched window.
func NewWatcherFactory(onChange func(wid state.WinID)) state.WatcherFactory {
	return func(w state.Window) state.Watcher {
		wid, ok := w.ID()
		if !ok {
			return noopWatcher{}
		}
		pid := w.PID()
		return &darwinWatcher{
			pid: pid,
			wid: wid,
			onChange: func() {
				if onChange != nil {
					onChange(wid)
				}
			},
		}
	}
}

type noopWatcher struct{}

func (noopWatcher) Start() {}
func (noopWatcher) Stop()  {}

//export goAXWatcherCallback
func goAXWatcherCallback(h C.uintptr_t) {
	handle := cgo.Handle(uintptr(h))
	if fn, ok := handle.Value().(func()); ok {
		fn()
	}
}

func (w *darwinWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	w.handle = cgo.NewHandle(w.onChange)
	w.stop = make(chan struct{})
	w.stopped = make(chan struct{})

	go w.run(w.handle, w.stop, w.stopped)
}

func (w *darwinWatcher) run(handle cgo.Handle, stop, stopped chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(stopped)
	defer handle.Delete()

	app := C.ax_create_application(C.int(w.pid))
	if app == 0 {
		return
	}
	defer C.CFRelease(C.CFTypeRef(app))

	element, ok := findWindowElement(app, w.wid)
	if !ok {
		return
	}
	defer C.CFRelease(C.CFTypeRef(element))

	observer := C.ax_observer_create(C.int(w.pid))
	if observer == 0 {
		return
	}
	defer C.CFRelease(C.CFTypeRef(observer))

	moved := C.kAXMovedNotification
	resized := C.kAXResizedNotification

	refcon := unsafe.Pointer(uintptr(handle))
	C.ax_observer_add(observer, element, moved, refcon)
	C.ax_observer_add(observer, element, resized, refcon)
	defer C.ax_observer_remove(observer, element, moved)
	defer C.ax_observer_remove(observer, element, resized)

	runLoop := C.CFRunLoopGetCurrent()
	src := C.ax_observer_source(observer)
	C.CFRunLoopAddSource(runLoop, src, C.kCFRunLoopDefaultMode)
	defer C.CFRunLoopRemoveSource(runLoop, src, C.kCFRunLoopDefaultMode)

	for {
		C.CFRunLoopRunInMode(C.kCFRunLoopDefaultMode, 0.2, 0)
		select {
		case <-stop:
			return
		default:
		}
	}
}

func (w *darwinWatcher) Stop() {
	w.mu.Lock()
	stop, stopped := w.stop, w.stopped
	w.stop, w.stopped = nil, nil
	w.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-stopped
}
