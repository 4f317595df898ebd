package browser

// selTweetArticle marks a rendered tweet on the profile timeline
const selTweetArticle = `article[data-testid="tweet"]`

// extractJS pulls tweet data out of the rendered timeline. Metric counters
// come back as display strings ("1.2K") and are parsed on the Go side.
const extractJS = `
	(function() {
		const tweets = document.querySelectorAll('article[data-testid="tweet"]');
		const results = [];

		tweets.forEach(el => {
			try {
				const statusLink = el.querySelector('a[href*="/status/"]');
				const id = statusLink?.href?.match(/status\/(\d+)/)?.[1];
				if (!id) return;

				const tweetTextEl = el.querySelector('[data-testid="tweetText"]');
				const content = tweetTextEl?.textContent || '';

				const timeEl = el.querySelector('time');
				const timestamp = timeEl?.getAttribute('datetime') || '';

				const getMetric = (testId) => {
					const metricEl = el.querySelector('[data-testid="' + testId + '"]');
					if (!metricEl) return '0';
					const ariaLabel = metricEl.getAttribute('aria-label');
					if (ariaLabel) {
						const match = ariaLabel.match(/^([\d,.]+[KkMm]?)/);
						return match ? match[1] : '0';
					}
					return metricEl.textContent?.trim() || '0';
				};

				const replies = getMetric('reply');
				const retweets = getMetric('retweet');
				const likes = getMetric('like');

				// View counts render as a link to /analytics rather than a button
				let views = '0';
				const viewsLink = el.querySelector('a[href*="/analytics"]');
				if (viewsLink) {
					const ariaLabel = viewsLink.getAttribute('aria-label');
					const match = ariaLabel?.match(/^([\d,.]+[KkMm]?)/);
					views = match ? match[1] : (viewsLink.textContent?.trim() || '0');
				}

				const socialContext = el.querySelector('[data-testid="socialContext"]');
				const isRetweet = socialContext?.textContent?.toLowerCase().includes('repost') ||
				                  socialContext?.textContent?.toLowerCase().includes('retweeted') || false;

				results.push({
					id,
					content,
					timestamp,
					likes,
					retweets,
					replies,
					views,
					url: statusLink?.href || '',
					isRetweet
				});
			} catch (e) {
				console.error('Error extracting tweet:', e);
			}
		});

		return results;
	})()
`
