// Package services defines the shared error taxonomy for montage's external
// collaborators and pipeline stages.
//
// Every fatal failure is tagged with one of the exported sentinel errors so
// the CLI boundary can classify it with errors.Is and choose the right exit
// message without string matching.
package services
