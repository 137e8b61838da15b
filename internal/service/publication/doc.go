// Package publication governs a project's lifecycle between draft and
// published. Publishing requires a reserved slug and a quota allowance;
// unpublishing is an administrative override that releases the slug
// entirely. Every transition is a single conditional update against the
// project row, so no partial state is ever observable.
package publication
