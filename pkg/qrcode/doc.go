// Package qrcode renders QR codes for two-factor enrollment using
// skip2/go-qrcode.
package qrcode
