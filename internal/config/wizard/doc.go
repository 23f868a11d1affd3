// Package wizard runs the interactive k8stacks init questionnaire and turns
// the answers into a project file.
package wizard
