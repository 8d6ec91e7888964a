// Package dbus exposes the running assistant on the session bus.
// The daemon exports io.github.jmylchreest.Cybor with Status, Command and
// Shutdown methods and a StatusChanged signal; the cybor CLI talks to it
// through Client. DesktopNotifier posts messages through
// org.freedesktop.Notifications.
package dbus
