// File: internal/linkedin/selectors.go

package linkedin

// Page locations. The site is aggressive about shuffling markup, so every
// selector and script lives here rather than inline in the flows.
const (
	homeURL       = "https://www.linkedin.com"
	loginURL      = "https://www.linkedin.com/login"
	meProfileURL  = "https://www.linkedin.com/in/me/"
	profileURLFmt = "https://www.linkedin.com/in/%s"

	// Appended to a profile URL to reach the full activity feed.
	activityPath = "/recent-activity/all/"

	// Set on successful authentication; its absence after login is a strong
	// signal the session is not actually established.
	authCookieName = "li_at"
)

// Login form.
const (
	guestSignInSelector = `a[data-tracking-control-name="guest_homepage-basic_nav-header-signin"]`
	usernameSelector    = "#username"
	passwordSelector    = "#password"
	loginSubmitSelector = `button[type="submit"]`
	rememberMeCheckbox  = "#rememberMeOptIn-checkbox"
	rememberMeLabel     = `label[for="rememberMeOptIn-checkbox"]`
	rememberMeCheckedJS = `(() => { const el = document.querySelector('#rememberMeOptIn-checkbox'); return !!(el && el.checked); })()`
)

// Visible error containers the login page uses across its variants, in
// scan order.
var loginErrorSelectors = []string{
	"#error-for-password",
	"#error-for-username",
	".form__label--error",
	".artdeco-inline-feedback--error",
	`[role="alert"]`,
	".alert",
}

// Email PIN challenge.
const (
	pinInputSelector  = `input[name="pin"], #input__email_verification_pin`
	pinSubmitSelector = "#email-pin-submit-button"
)

// Error containers on the challenge page, scanned after PIN submission.
var pinErrorSelectors = []string{
	".body__banner-message",
	".artdeco-inline-feedback--error",
	`[role="alert"]`,
	".form__label--error",
}

// challengePathMarkers identify interstitial security pages by URL.
var challengePathMarkers = []string{"/checkpoint", "/challenge"}

// Feed extraction. The script runs inside the page and returns one object
// per activity node; counts come back as raw display text for host-side
// parsing.
const (
	activityCountJS = `document.querySelectorAll('div[data-urn^="urn:li:activity"]').length`

	extractPostsJS = `(() => {
	const nodes = Array.from(document.querySelectorAll('div[data-urn^="urn:li:activity"]'));
	return nodes.map((node) => {
		const urn = node.getAttribute('data-urn') || '';
		const descEl = node.querySelector('div.feed-shared-update-v2__description span[dir="ltr"]') ||
			node.querySelector('.update-components-text span[dir="ltr"]');
		const description = descEl ? descEl.innerText.trim() : '';
		const likesEl = node.querySelector('button[aria-label*="reaction"]') ||
			node.querySelector('span[aria-label*="reaction"]') ||
			node.querySelector('.social-details-social-counts__reactions-count');
		const likesText = likesEl ? (likesEl.getAttribute('aria-label') || likesEl.innerText || '0') : '0';
		const commentsEl = node.querySelector('button[aria-label*="comment"]') ||
			node.querySelector('.social-details-social-counts__comments');
		const commentsText = commentsEl ? (commentsEl.getAttribute('aria-label') || commentsEl.innerText || '0') : '0';
		const images = Array.from(node.querySelectorAll('img'))
			.map((img) => img.src || '')
			.filter((src) => src.includes('media.licdn.com') && !src.includes('emoji'));
		return { urn, description, images, likesText, commentsText };
	});
})()`

	scrollStepJS = `window.scrollBy({ top: window.innerHeight * (1.5 + Math.random() * 0.8), behavior: 'smooth' })`

	initialScrollJS = `window.scrollBy(0, window.innerHeight * 1.8)`
)

// usernameExtractionJS are the vanity-name discovery strategies, tried in
// order on the logged-in page. Each returns the extracted name or an empty
// string; "me" is never a valid answer.
var usernameExtractionJS = []string{
	// Feed identity card in the left rail.
	`(() => {
	const a = document.querySelector('.feed-identity-module__actor-link, a[data-control-name="identity_welcome_message"]');
	if (!a || !a.href) return '';
	const m = a.href.match(/\/in\/([^\/\?]+)/);
	return m ? m[1] : '';
})()`,
	// Edit-profile style links carry the real vanity name.
	`(() => {
	const a = document.querySelector('a[href*="/in/"][href*="/edit/"]');
	if (!a || !a.href) return '';
	const m = a.href.match(/\/in\/([^\/\?]+)/);
	return m ? m[1] : '';
})()`,
	// Canonical link on a profile page.
	`(() => {
	const link = document.querySelector('link[rel="canonical"]');
	if (!link || !link.href) return '';
	const m = link.href.match(/\/in\/([^\/\?]+)/);
	return m ? m[1] : '';
})()`,
	// OpenGraph URL, present on public profile renders.
	`(() => {
	const meta = document.querySelector('meta[property="og:url"]');
	if (!meta || !meta.content) return '';
	const m = meta.content.match(/\/in\/([^\/\?]+)/);
	return m ? m[1] : '';
})()`,
	// The profile photo is usually wrapped in a link to the profile itself.
	`(() => {
	const img = document.querySelector('img[alt*="profile"]');
	if (!img) return '';
	const a = img.closest('a');
	if (!a || !a.href) return '';
	const m = a.href.match(/\/in\/([^\/\?]+)/);
	return m ? m[1] : '';
})()`,
	// Last resort: any profile link that is not the "me" alias.
	`(() => {
	for (const a of document.querySelectorAll('a[href*="/in/"]')) {
		const m = (a.href || '').match(/\/in\/([^\/\?]+)/);
		if (m && m[1] && m[1] !== 'me') return m[1];
	}
	return '';
})()`,
}
