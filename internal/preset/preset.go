// Package preset holds the compiled-in step templates used to seed a new
// campaign's steps. Materializing a preset is a one-time copy; campaigns
// keep no link back to the preset they came from.
package preset

// Entry is one seed step: its delay after the previous step and its
// message template.
type Entry struct {
	DelayMinutes    int    `json:"delay_minutes"`
	MessageTemplate string `json:"message_template"`
}

type Preset struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Steps       []Entry `json:"steps"`
}

var catalog = []Preset{
	{
		Key:         "speed_to_lead",
		Name:        "Speed to Lead",
		Description: "Immediate follow-up for fresh leads with escalating nudges",
		Steps: []Entry{
			{DelayMinutes: 1, MessageTemplate: "Hi {{first_name}}, this is {{agent_name}} with {{business_name}}. Thanks for reaching out about {{service_category}}! When works for a quick call?"},
			{DelayMinutes: 30, MessageTemplate: "Hey {{first_name}}, just making sure my last message didn't get buried. Want me to get you on the schedule?"},
			{DelayMinutes: 1440, MessageTemplate: "Hi {{first_name}}, {{agent_name}} here one more time. If you still need help with {{service_category}}, just reply YES and we'll take it from there."},
		},
	},
	{
		Key:         "appointment_reminder",
		Name:        "Appointment Reminders",
		Description: "Confirmation plus reminders leading up to a booked visit",
		Steps: []Entry{
			{DelayMinutes: 0, MessageTemplate: "{{first_name}}, you're booked with {{business_name}}! We'll text you before your appointment with anything you need to know."},
			{DelayMinutes: 2880, MessageTemplate: "Hi {{first_name}}, a reminder from {{business_name}} about your upcoming {{service_category}} appointment. Reply C to confirm or R to reschedule."},
			{DelayMinutes: 1320, MessageTemplate: "See you soon, {{first_name}}! Your {{business_name}} technician is scheduled for tomorrow. Reply here if anything changes."},
		},
	},
	{
		Key:         "post_service_followup",
		Name:        "Post-Service Follow-Up",
		Description: "Thank-you, feedback check, then a review ask",
		Steps: []Entry{
			{DelayMinutes: 60, MessageTemplate: "Thanks for choosing {{business_name}}, {{first_name}}! It was a pleasure taking care of your {{service_category}} needs."},
			{DelayMinutes: 1440, MessageTemplate: "Hi {{first_name}}, how did everything turn out? If anything isn't right, reply here and we'll make it right."},
			{DelayMinutes: 2880, MessageTemplate: "{{first_name}}, if you were happy with {{business_name}}, a quick review goes a long way for a local business. Thank you!"},
		},
	},
	{
		Key:         "reengagement",
		Name:        "Lead Re-Engagement",
		Description: "Wake up stale leads with a fresh touch and one later nudge",
		Steps: []Entry{
			{DelayMinutes: 0, MessageTemplate: "Hi {{first_name}}, it's {{agent_name}} from {{business_name}}. We spoke a while back about {{service_category}}. Still something we can help with?"},
			{DelayMinutes: 4320, MessageTemplate: "Hey {{first_name}}, last note from me! We've got openings this week if you'd like to get that {{service_category}} work handled."},
		},
	},
}

// List returns the full catalog.
func List() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// ByKey looks a preset up by its key.
func ByKey(key string) (Preset, bool) {
	for _, p := range catalog {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}
