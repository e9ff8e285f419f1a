// Package pose defines the canonical skeleton shared by every estimation
// backend and analysis stage.
//
// A Pose always carries exactly KeypointCount keypoints in COCO order. Parts
// the backend could not locate stay in place with zero confidence so index
// lookups never need bounds checks. Frame describes the image handed to the
// estimator together with its native dimensions.
package pose
