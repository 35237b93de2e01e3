// Package partial resolves record field identifiers into live-preview partials
// and renders their current HTML.
//
// An identifier names one field of one content record:
//
//	record[<content-type>][<record-id>]
//	record[<content-type>][<record-id>][<field-id>]
//	record[<content-type>][<record-id>][<field-id>][<placement>]
//
// New parses and resolves an identifier once; a malformed identifier or an
// unknown content type is a construction error and no partial is returned.
// Render may then be called any number of times. It re-reads the record on
// every call and reports ok == false (abstain) whenever an in-place update is
// not possible, in which case the caller falls back to a full page reload.
package partial
