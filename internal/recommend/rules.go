package recommend

// Deviation thresholds on standardized values. Both comparisons are strict.
const (
	LowThreshold  = -0.3
	HighThreshold = 0.3
)

// Feature and cluster names the rules are keyed on.
const (
	FeatureHoursStudied     = "Hours_Studied"
	FeatureAttendance       = "Attendance"
	FeatureTutoringSessions = "Tutoring_Sessions"
	FeaturePhysicalActivity = "Physical_Activity"
	FeatureSleepHours       = "Sleep_Hours"

	ClusterActiveImprovers  = "Active Improvers"
	ClusterFocusedLearners  = "Focused Learners"
	ClusterRegularAttendees = "Regular Attendees"
)

type featureRule struct {
	Feature string
	Low     string
	High    string
}

// featureRules are evaluated in this order.
var featureRules = []featureRule{
	{
		Feature: FeatureHoursStudied,
		Low:     "Increase daily self-study time with a fixed schedule.",
		High:    "Maintain your current self-study routine, but focus on revising weak topics.",
	},
	{
		Feature: FeatureAttendance,
		Low:     "Improve class attendance by setting a minimum target.",
		High:    "Use your strong class attendance to actively ask questions and clarify doubts.",
	},
	{
		Feature: FeatureTutoringSessions,
		Low:     "Consider using tutoring or mentoring sessions when you struggle with topics.",
		High:    "Review what you learn in tutoring through short self-study sessions afterwards.",
	},
	{
		Feature: FeaturePhysicalActivity,
		Low:     "Add regular light physical activity to improve focus.",
		High:    "Maintain your physical activity; use it to manage stress during exam periods.",
	},
	{
		Feature: FeatureSleepHours,
		Low:     "Aim for a more regular sleep schedule with at least 7 hours of sleep.",
		High:    "Keep your healthy sleep routine; avoid late-night screen time before exams.",
	},
}

var clusterRules = map[string][]string{
	ClusterActiveImprovers: {
		"Reduce dependency on tutoring by adding solo revision after each session.",
		"Balance your schedule to increase sleep time while keeping activity moderate.",
		"Create a weekly self-study plan focusing on topics covered in tutoring.",
	},
	ClusterFocusedLearners: {
		"Increase class attendance to complement your self-study with teacher guidance.",
		"Use occasional tutoring or doubt-clearing sessions for difficult subjects.",
		"Share your effective self-study strategies with peers or study groups.",
	},
	ClusterRegularAttendees: {
		"Convert your good class attendance into better results by planning daily revision.",
		"Include short physical activity breaks to avoid fatigue and improve concentration.",
		"Use tutoring or peer study groups if you still feel stuck despite attending classes.",
	},
}

// Features lists the standardized features the engine reads, in rule order.
func Features() []string {
	out := make([]string, len(featureRules))
	for i, r := range featureRules {
		out[i] = r.Feature
	}
	return out
}

// ClusterAdvice returns the fixed recommendations for a cluster name, or nil.
func ClusterAdvice(name string) []string {
	advice := clusterRules[name]
	if advice == nil {
		return nil
	}
	return append([]string(nil), advice...)
}
