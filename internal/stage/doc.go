// Package stage runs a single external capability call with uniform
// preconditions and postconditions.
//
// Executor.Run checks that every input exists and is readable, invokes the
// capability, and verifies that the declared output artifact was produced.
// Failures come back wrapped with one of the services markers so callers can
// branch on services.KindOf without inspecting messages. The executor never
// retries and never removes its inputs.
package stage
