package sqlinline

// Every metric query covers the window [$1, $2) of one calendar day and, for
// scoped metrics, $3 = stream scope id (null for the whole system).

const QDailyUniqueVisitorCount = `--sql 6a2ba752-69e5-4f6f-bd93-28876a0f067d
select count(distinct person_id)
from usage_metric
where created_at >= $1::timestamptz
  and created_at < $2::timestamptz;
`

const QDailyPageViewCount = `--sql 84549bc3-6415-43fa-9fa5-ae71c5a2943f
select count(*)
from usage_metric
where is_page_view
  and created_at >= $1::timestamptz
  and created_at < $2::timestamptz;
`

const QDailyStreamViewCount = `--sql 504fdbd2-226d-48cb-906f-ff43e03e35d5
select count(*)
from usage_metric
where is_stream_view
  and created_at >= $1::timestamptz
  and created_at < $2::timestamptz
  and ($3::bigint is null or stream_scope_id = $3::bigint);
`

const QDailyStreamViewerCount = `--sql a6f06d17-2bb7-461a-8aa5-48cf9d370221
select count(distinct person_id)
from usage_metric
where is_stream_view
  and created_at >= $1::timestamptz
  and created_at < $2::timestamptz
  and ($3::bigint is null or stream_scope_id = $3::bigint);
`

const QDailyStreamContributorCount = `--sql 8e327718-0b2f-43b9-a7df-3776a75a9dae
select count(distinct author_id)
from (
  select a.author_id
  from activity a
  where a.posted_at >= $1::timestamptz
    and a.posted_at < $2::timestamptz
    and ($3::bigint is null or a.stream_scope_id = $3::bigint)
  union
  select c.author_id
  from comment c
  join activity a on a.id = c.activity_id
  where c.posted_at >= $1::timestamptz
    and c.posted_at < $2::timestamptz
    and ($3::bigint is null or a.stream_scope_id = $3::bigint)
) contributors;
`

const QDailyMessageCount = `--sql 00b2ea85-f2e3-4080-a759-4ef07b8312ab
select
  (select count(*)
   from activity a
   where a.posted_at >= $1::timestamptz
     and a.posted_at < $2::timestamptz
     and ($3::bigint is null or a.stream_scope_id = $3::bigint))
  +
  (select count(*)
   from comment c
   join activity a on a.id = c.activity_id
   where c.posted_at >= $1::timestamptz
     and c.posted_at < $2::timestamptz
     and ($3::bigint is null or a.stream_scope_id = $3::bigint));
`

// Average minutes between an activity and its first comment, over the day's
// activities that were commented on the same day.
const QDailyMessageResponseTime = `--sql 9d599a73-e12b-4298-8dc8-34b04b81061e
select coalesce(round(avg(extract(epoch from (fc.first_comment_at - a.posted_at)) / 60)), 0)::bigint
from activity a
join lateral (
  select min(c.posted_at) as first_comment_at
  from comment c
  where c.activity_id = a.id
) fc on fc.first_comment_at is not null
where a.posted_at >= $1::timestamptz
  and a.posted_at < $2::timestamptz
  and fc.first_comment_at < $2::timestamptz
  and ($3::bigint is null or a.stream_scope_id = $3::bigint);
`
