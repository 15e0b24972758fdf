/*
go-crosscount tracks objects detected in a video stream and counts them as
they cross configured boundary lines.

Detections for each frame are matched to stable identities by a greedy
centroid tracker, the motion of each identity between frames is tested
against checkpoint boundaries, and every identity is credited at most once
per boundary label.  A single background worker drives the per-frame
pipeline while any number of readers poll the latest annotated frame and a
snapshot of the aggregate counts.

See the cmd/crosscount binary for a complete HTTP serving application.
*/
package crosscount
